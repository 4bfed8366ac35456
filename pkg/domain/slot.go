package domain

import (
	"strconv"
	"sync/atomic"
)

// Handle identifies a component for its whole life. Handles are process-unique
// and never reused, so a component keeps its handle when it moves between circuits.
type Handle uint64

var lastHandle atomic.Uint64

func nextHandle() Handle {
	return Handle(lastHandle.Add(1))
}

func (h Handle) String() string {
	return "#" + strconv.FormatUint(uint64(h), 10)
}

// SlotRef addresses one input or one output of a component.
// Whether it names an input or an output depends on where it is used.
type SlotRef struct {
	Component Handle
	Index     int
}

// InputSlot holds the value received from at most one incoming connection.
type InputSlot struct {
	owner Handle
	index int
	value bool
	conn  *Connection
}

func (s *InputSlot) Owner() Handle           { return s.owner }
func (s *InputSlot) Index() int              { return s.index }
func (s *InputSlot) Value() bool             { return s.value }
func (s *InputSlot) Connection() *Connection { return s.conn }
func (s *InputSlot) Ref() SlotRef            { return SlotRef{Component: s.owner, Index: s.index} }

// OutputSlot holds a computed value and the ordered set of outgoing connections.
type OutputSlot struct {
	owner Handle
	index int
	value bool
	conns []*Connection
}

func (s *OutputSlot) Owner() Handle { return s.owner }
func (s *OutputSlot) Index() int    { return s.index }
func (s *OutputSlot) Value() bool   { return s.value }
func (s *OutputSlot) Ref() SlotRef  { return SlotRef{Component: s.owner, Index: s.index} }

// Connections returns a copy of the outgoing connections in registration order.
func (s *OutputSlot) Connections() []*Connection {
	out := make([]*Connection, len(s.conns))
	copy(out, s.conns)
	return out
}

func (s *OutputSlot) attach(c *Connection) {
	s.conns = append(s.conns, c)
}

func (s *OutputSlot) detach(c *Connection) {
	for i, existing := range s.conns {
		if existing == c {
			s.conns = append(s.conns[:i], s.conns[i+1:]...)
			return
		}
	}
}
