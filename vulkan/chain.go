package vulkan

import (
	"fmt"

	"github.com/pkg/errors"
)

// ChainState is where a chain is in its build/release cycle.
type ChainState int

const (
	ChainIdle ChainState = iota
	ChainLive
	ChainRebuilding
	ChainFailed
)

func (s ChainState) String() string {
	switch s {
	case ChainIdle:
		return "idle"
	case ChainLive:
		return "live"
	case ChainRebuilding:
		return "rebuilding"
	case ChainFailed:
		return "failed"
	default:
		return fmt.Sprintf("ChainState(%d)", int(s))
	}
}

// stage is one resource in a chain. release must undo exactly what build
// did and is only called after build succeeded.
type stage struct {
	name    string
	build   func() error
	release func()
}

// chain builds its stages in order and releases them in reverse. A build
// failure releases every stage built before it, so a chain is either fully
// built or holds nothing.
type chain struct {
	name   string
	stages []stage
	built  int
	state  ChainState
}

func newChain(name string) *chain {
	return &chain{name: name}
}

// add appends a stage. Stages may only be added while nothing is built.
func (c *chain) add(name string, build func() error, release func()) *chain {
	if c.built > 0 {
		panic("vulkan: stage added to a built chain")
	}
	c.stages = append(c.stages, stage{name: name, build: build, release: release})
	return c
}

func (c *chain) State() ChainState { return c.state }

// Build runs every stage in order. On failure the stages already built are
// released in reverse and the chain is left Failed.
func (c *chain) Build() error {
	if c.built > 0 {
		return errors.Wrapf(ErrInvalidArgument, "%s chain already built", c.name)
	}
	for i, s := range c.stages {
		if err := s.build(); err != nil {
			c.built = i
			c.Release()
			c.state = ChainFailed
			return errors.Wrapf(err, "%s: %s", c.name, s.name)
		}
	}
	c.built = len(c.stages)
	c.state = ChainLive
	return nil
}

// Release tears down the built stages, last first. It is safe to call on
// an unbuilt chain.
func (c *chain) Release() {
	for i := c.built - 1; i >= 0; i-- {
		if rel := c.stages[i].release; rel != nil {
			rel()
		}
	}
	c.built = 0
	c.state = ChainIdle
}

// Rebuild releases and builds the chain again. A failure leaves the chain
// empty and Failed.
func (c *chain) Rebuild() error {
	c.Release()
	c.state = ChainRebuilding
	return c.Build()
}
