package station

import "github.com/jdfin/dccstation/pkgs/throttle"

// CreateLoco allocates a throttle slot for address if one doesn't already
// exist, or returns the existing one. funcMax is only applied on first
// creation; call FindLoco(address).SetFuncMax to change it later.
func (c *Controller) CreateLoco(address, funcMax int) (*throttle.Slot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if slot := c.findLocoLocked(address); slot != nil {
		return slot, nil
	}
	slot, err := throttle.New(address, funcMax)
	if err != nil {
		return nil, err
	}
	c.throttles = append(c.throttles, slot)
	return slot, nil
}

// DeleteLoco removes address's throttle slot, if any. It reports whether a
// slot was actually removed.
func (c *Controller) DeleteLoco(address int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.throttles {
		if s.Address() == address {
			c.throttles = append(c.throttles[:i], c.throttles[i+1:]...)
			if c.rrIdx >= len(c.throttles) {
				c.rrIdx = 0
			}
			return true
		}
	}
	return false
}

// FindLoco returns address's throttle slot, or nil if none is registered.
func (c *Controller) FindLoco(address int) *throttle.Slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.findLocoLocked(address)
}

func (c *Controller) findLocoLocked(address int) *throttle.Slot {
	for _, s := range c.throttles {
		if s.Address() == address {
			return s
		}
	}
	return nil
}

// Locos returns a snapshot of the registered throttle slots in
// round-robin order.
func (c *Controller) Locos() []*throttle.Slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*throttle.Slot, len(c.throttles))
	copy(out, c.throttles)
	return out
}
