package simhw

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

var errUartEmpty = errors.New("simhw: uart read with nothing pending")

// Uart simulates the RailCom receiver. There's no real decoder replying,
// so Inject is how a test or a CLI diagnostic command stages bytes to be
// "received" during the next cutout — standing in for whatever a real
// decoder would have sent back.
type Uart struct {
	mu      sync.Mutex
	baud    uint32
	pending []byte
}

// NewUart builds an idle Uart with nothing queued.
func NewUart() *Uart {
	return &Uart{}
}

func (u *Uart) Init(baud uint32) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.baud = baud
	return nil
}

func (u *Uart) Deinit() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.baud = 0
}

func (u *Uart) Readable() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.pending) > 0
}

func (u *Uart) ReadByte() (byte, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.pending) == 0 {
		return 0, errUartEmpty
	}
	b := u.pending[0]
	u.pending = u.pending[1:]
	return b, nil
}

// Inject queues raw (already 4/8-line-coded) bytes to be read back during
// the next cutout, as if a decoder had just transmitted them.
func (u *Uart) Inject(raw []byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pending = append(u.pending, raw...)
	logrus.WithField("n", len(raw)).Debug("simhw: uart reply injected")
}
