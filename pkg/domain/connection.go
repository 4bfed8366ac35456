package domain

import "fmt"

// Connection is a directed edge from one output slot to one input slot.
// Waypoints are opaque routing data owned by the renderer and carried verbatim.
type Connection struct {
	from      SlotRef
	to        SlotRef
	waypoints []Point
}

func (c *Connection) From() SlotRef { return c.from }
func (c *Connection) To() SlotRef   { return c.to }

// Waypoints returns a copy of the routing path.
func (c *Connection) Waypoints() []Point {
	return clonePoints(c.waypoints)
}

// Spec returns the position-independent description of the edge, enough to
// recreate it later with Circuit.Connect.
func (c *Connection) Spec() Wire {
	return Wire{From: c.from, To: c.to, Waypoints: clonePoints(c.waypoints)}
}

func (c *Connection) String() string {
	return fmt.Sprintf("%s.%d -> %s.%d", c.from.Component, c.from.Index, c.to.Component, c.to.Index)
}

// Wire describes a connection by its endpoints. Commands keep Wires rather
// than Connections because a disconnected edge is never reused.
type Wire struct {
	From      SlotRef
	To        SlotRef
	Waypoints []Point
}

// Point is an opaque 2D coordinate, serialized as [x, y].
type Point struct {
	X float64
	Y float64
}

func clonePoints(in []Point) []Point {
	if in == nil {
		return nil
	}
	out := make([]Point, len(in))
	copy(out, in)
	return out
}
