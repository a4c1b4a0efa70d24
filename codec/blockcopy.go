package codec

// CopyBlockFromVolume copies block (bix,biy,biz) out of vol into scratch
// (len == dims.Cells()), zero-filling any cell whose volume coordinate falls
// outside [0,Nx)x[0,Ny)x[0,Nz). Boundary cells are always zero-filled, both
// for compression and decompression, never clamped to the nearest valid
// cell.
func CopyBlockFromVolume(vol *Volume, dims BlockDims, bix, biy, biz int, scratch []float32) {
	x0, y0, z0 := bix*dims.BX, biy*dims.BY, biz*dims.BZ

	idx := 0
	for z := 0; z < dims.BZ; z++ {
		vz := z0 + z
		zInBounds := vz >= 0 && vz < vol.Nz
		for y := 0; y < dims.BY; y++ {
			vy := y0 + y
			yInBounds := zInBounds && vy >= 0 && vy < vol.Ny
			for x := 0; x < dims.BX; x++ {
				vx := x0 + x
				if yInBounds && vx >= 0 && vx < vol.Nx {
					scratch[idx] = vol.At(vx, vy, vz)
				} else {
					scratch[idx] = 0
				}
				idx++
			}
		}
	}
}

// CopyBlockToVolume writes scratch back into vol, clipped to volume bounds;
// cells that CopyBlockFromVolume zero-padded are simply discarded here.
func CopyBlockToVolume(vol *Volume, dims BlockDims, bix, biy, biz int, scratch []float32) {
	x0, y0, z0 := bix*dims.BX, biy*dims.BY, biz*dims.BZ

	idx := 0
	for z := 0; z < dims.BZ; z++ {
		vz := z0 + z
		zInBounds := vz >= 0 && vz < vol.Nz
		for y := 0; y < dims.BY; y++ {
			vy := y0 + y
			yInBounds := zInBounds && vy >= 0 && vy < vol.Ny
			for x := 0; x < dims.BX; x++ {
				vx := x0 + x
				if yInBounds && vx >= 0 && vx < vol.Nx {
					vol.Set(vx, vy, vz, scratch[idx])
				}
				idx++
			}
		}
	}
}
