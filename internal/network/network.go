package network

import "github.com/nkarsten/flownet/internal/simerr"

// NodeID identifies a node. The zero value means "no node", so a valid id is
// never zero and Index maps id -> id-1 for slice addressing.
type NodeID uint32

func (n NodeID) Valid() bool { return n != 0 }
func (n NodeID) Index() int  { return int(n) - 1 }

// CompID identifies a two-port component, with the same non-zero convention.
type CompID uint32

func (c CompID) Valid() bool { return c != 0 }
func (c CompID) Index() int  { return int(c) - 1 }

type Node struct {
	ID   NodeID
	Name string
}

// Component connects exactly one inlet node to one outlet node.
type Component struct {
	ID     CompID
	Name   string
	Inlet  NodeID
	Outlet NodeID
}

// PortRef is one side of a component as seen from a node: Inbound means the
// node is the component's outlet (flow at positive mass rate enters the node).
type PortRef struct {
	Comp    CompID
	Inbound bool
}

// Network is an immutable node/component graph with stable indices.
// Build with AddNode/Connect, then treat as read-only.
type Network struct {
	nodes    []Node
	comps    []Component
	incident [][]PortRef
}

func New() *Network {
	return &Network{}
}

func (n *Network) AddNode(name string) NodeID {
	id := NodeID(len(n.nodes) + 1)
	n.nodes = append(n.nodes, Node{ID: id, Name: name})
	n.incident = append(n.incident, nil)
	return id
}

// Connect adds a two-port component from inlet to outlet. Adjacency lists are
// appended in component-id order, which keeps iteration deterministic.
func (n *Network) Connect(name string, inlet, outlet NodeID) (CompID, error) {
	if !n.hasNode(inlet) || !n.hasNode(outlet) {
		return 0, simerr.Setupf("component %q references unknown node", name)
	}
	if inlet == outlet {
		return 0, simerr.Setupf("component %q connects node %d to itself", name, inlet.Index())
	}
	id := CompID(len(n.comps) + 1)
	n.comps = append(n.comps, Component{ID: id, Name: name, Inlet: inlet, Outlet: outlet})
	n.incident[inlet.Index()] = append(n.incident[inlet.Index()], PortRef{Comp: id, Inbound: false})
	n.incident[outlet.Index()] = append(n.incident[outlet.Index()], PortRef{Comp: id, Inbound: true})
	return id, nil
}

func (n *Network) hasNode(id NodeID) bool {
	return id.Valid() && id.Index() < len(n.nodes)
}

func (n *Network) NumNodes() int { return len(n.nodes) }
func (n *Network) NumComps() int { return len(n.comps) }

func (n *Network) Node(id NodeID) Node      { return n.nodes[id.Index()] }
func (n *Network) Comp(id CompID) Component { return n.comps[id.Index()] }

// Nodes returns the node list in index order. Callers must not mutate it.
func (n *Network) Nodes() []Node { return n.nodes }

// Comps returns the component list in index order. Callers must not mutate it.
func (n *Network) Comps() []Component { return n.comps }

// Ports returns the incident ports of a node in component-id order.
func (n *Network) Ports(id NodeID) []PortRef { return n.incident[id.Index()] }
