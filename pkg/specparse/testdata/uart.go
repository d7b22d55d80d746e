package uart

// Uart is a minimal serial port.
type Uart struct {
	// Transmit and receive data.
	Data   uint8  `reg:"offset=0x00,access=RW"`
	Status uint8  `reg:"offset=0x01,access=RO"`
	Intr   uint16 `reg:"offset=0x02,access=WC"` // pending interrupts
	_      [4]byte
	Baud   uint32 `reg:"offset=0x08,access=WO"`
}

// notABlock has no register tags.
type notABlock struct {
	x int
}
