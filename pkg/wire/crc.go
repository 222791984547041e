package wire

// Both checksums are table driven CRCs over reflected polynomials:
// CRC8 uses 0x31 (reflected 0x8c) and CRC16 uses 0x1021 (reflected 0x8408).
const (
	crc8Seed  uint8  = 0x77
	crc16Seed uint16 = 0x3692
)

var (
	crc8Table  = makeCRC8Table(0x8c)
	crc16Table = makeCRC16Table(0x8408)
)

func makeCRC8Table(poly uint8) [256]uint8 {
	var t [256]uint8
	for i := range t {
		crc := uint8(i)
		for j := 0; j < 8; j++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ poly
			} else {
				crc >>= 1
			}
		}
		t[i] = crc
	}
	return t
}

func makeCRC16Table(poly uint16) [256]uint16 {
	var t [256]uint16
	for i := range t {
		crc := uint16(i)
		for j := 0; j < 8; j++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ poly
			} else {
				crc >>= 1
			}
		}
		t[i] = crc
	}
	return t
}

func crc8(b []byte) uint8 {
	crc := crc8Seed
	for _, v := range b {
		crc = crc8Table[crc^v]
	}
	return crc
}

func crc16(b []byte) uint16 {
	crc := crc16Seed
	for _, v := range b {
		crc = crc>>8 ^ crc16Table[uint8(crc)^v]
	}
	return crc
}
