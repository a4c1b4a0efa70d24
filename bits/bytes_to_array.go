package bits

import "unsafe"

// MapBytesToFloat32 reinterprets a byte slice as a []float32 view without
// copying. Used to decode the raw-fallback block record and the byte
// arena without an extra copy.
func MapBytesToFloat32(data []byte, count int) []float32 {
	if len(data) < count*4 {
		panic("not enough data")
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), count)
}

// Float32ToBytes reinterprets a []float32 as its little-endian byte backing
// store without copying.
func Float32ToBytes(data []float32) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
}
