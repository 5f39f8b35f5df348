package cpu

import (
	"encoding/hex"
	"log"
	"strings"
)

// Load copies a raw program image to address 0.
func (cpu *Cpu) Load(image []byte) (err error) {
	err = cpu.Memory.load(image)
	if err != nil {
		return
	}

	if cpu.Verbose {
		log.Print(f("cpu: loaded %v bytes", len(image)))
	}

	return
}

// LoadHex decodes a hex program image, two digits per byte, and loads it at
// address 0. Memory is not modified if the image is rejected.
func (cpu *Cpu) LoadHex(text string) (err error) {
	image, err := DecodeHex(text)
	if err != nil {
		return
	}

	if uint64(len(image)) > uint64(cpu.Memory.Size()) {
		err = MalformedImage{Offset: 2 * int(cpu.Memory.Size()), Reason: f("image larger than memory")}
		return
	}

	return cpu.Load(image)
}

// DecodeHex converts hex image text to bytes.
// Leading and trailing whitespace is ignored.
func DecodeHex(text string) (image []byte, err error) {
	text = strings.TrimSpace(text)

	if len(text)%2 != 0 {
		err = MalformedImage{Offset: len(text), Reason: f("odd number of digits")}
		return
	}

	image, err = hex.DecodeString(text)
	if err != nil {
		offset := len(text)
		if invalid, ok := err.(hex.InvalidByteError); ok {
			offset = strings.IndexByte(text, byte(invalid))
		}
		err = MalformedImage{Offset: offset, Reason: f("invalid hex digit")}
		image = nil
		return
	}

	return
}
