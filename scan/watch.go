package scan

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"memscan/process"
)

// TextWatchWidth is the window width used when watching a text address;
// there is no live literal to size the window from.
const TextWatchWidth = 32

// ChangeEvent reports one observed transition at a watched address.
type ChangeEvent struct {
	Address process.MemoryAddress
	Old     []byte
	New     []byte
}

// Watch polls one address at a fixed interval and invokes onChange for
// every transition, blocking the calling goroutine until ctx is cancelled
// (returns nil) or a read fails (returns the read error). Numeric kinds
// poll their fixed width, text polls TextWatchWidth bytes.
func Watch(ctx context.Context, mem Reader, addr process.MemoryAddress, kind ValueKind, interval time.Duration, onChange func(ChangeEvent)) error {
	w := kind.Width()
	if w == 0 {
		w = TextWatchWidth
	}

	last, err := mem.ReadMemory(addr, process.MemorySize(w))
	if err != nil {
		return fmt.Errorf("watch baseline read at %s: %w", addr, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		// The tick is the single suspension point; cancellation is checked there.
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		cur, err := mem.ReadMemory(addr, process.MemorySize(w))
		if err != nil {
			return fmt.Errorf("watch read at %s: %w", addr, err)
		}

		if !bytes.Equal(cur, last) {
			if onChange != nil {
				onChange(ChangeEvent{Address: addr, Old: last, New: cur})
			}
			last = cur
		}
	}
}
