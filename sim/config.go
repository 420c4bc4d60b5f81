package sim

import (
	"errors"
	"fmt"
)

// DefaultReallocationInterval is the number of cycles between scheduled redistributions
// when the caller does not choose one.
const DefaultReallocationInterval int64 = 1000

// ErrInvalidConfig is wrapped by every AllocatorConfig validation failure.
var ErrInvalidConfig = errors.New("invalid allocator config")

// AllocatorConfig groups the register file parameters fixed at construction.
type AllocatorConfig struct {
	TotalRegisters         int   // rename registers in the shared pool (must be > 0)
	MinRegistersPerContext int   // guaranteed floor per active context (must be > 0)
	MaxContexts            int   // hardware context slots (must be > 0)
	ReallocationInterval   int64 // cycles between scheduled redistributions (0 = every tick)
}

// NewAllocatorConfig creates an AllocatorConfig with all fields explicitly specified.
// It does not validate; NewRegisterAllocator does.
func NewAllocatorConfig(totalRegisters, minRegistersPerContext, maxContexts int, reallocationInterval int64) AllocatorConfig {
	return AllocatorConfig{
		TotalRegisters:         totalRegisters,
		MinRegistersPerContext: minRegistersPerContext,
		MaxContexts:            maxContexts,
		ReallocationInterval:   reallocationInterval,
	}
}

// Validate reports whether the configuration can back an allocator whose minimum and
// conservation invariants hold for any number of active contexts up to MaxContexts.
func (c AllocatorConfig) Validate() error {
	if c.TotalRegisters <= 0 {
		return fmt.Errorf("%w: total registers must be positive, got %d", ErrInvalidConfig, c.TotalRegisters)
	}
	if c.MinRegistersPerContext <= 0 {
		return fmt.Errorf("%w: min registers per context must be positive, got %d", ErrInvalidConfig, c.MinRegistersPerContext)
	}
	if c.MaxContexts <= 0 {
		return fmt.Errorf("%w: max contexts must be positive, got %d", ErrInvalidConfig, c.MaxContexts)
	}
	if c.ReallocationInterval < 0 {
		return fmt.Errorf("%w: reallocation interval must be non-negative, got %d", ErrInvalidConfig, c.ReallocationInterval)
	}
	// int64 so the product cannot overflow on 32-bit platforms
	if int64(c.MinRegistersPerContext)*int64(c.MaxContexts) > int64(c.TotalRegisters) {
		return fmt.Errorf("%w: %d contexts x %d min registers exceeds pool of %d",
			ErrInvalidConfig, c.MaxContexts, c.MinRegistersPerContext, c.TotalRegisters)
	}
	return nil
}
