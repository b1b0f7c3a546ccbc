package lossless

// Predictor applies one of JPEG Lossless's seven prediction rules given the
// left (ra), above (rb), and above-left (rc) neighbour samples. Canon CR2
// always signals predictor 1 (Ra, the previous sample on the scan line) in
// its SOS Ss field, but the reconstructor dispatches through this function
// rather than hardcoding case 1 inline so the decode loop reads the same
// way the rest of the JPEG Lossless family would.
func Predictor(predictor int, ra, rb, rc int) int {
	switch predictor {
	case 1:
		return ra
	case 2:
		return rb
	case 3:
		return rc
	case 4:
		return ra + rb - rc
	case 5:
		return ra + ((rb - rc) >> 1)
	case 6:
		return rb + ((ra - rc) >> 1)
	case 7:
		return (ra + rb) >> 1
	default:
		return ra
	}
}

// PredictorName returns a human-readable label for a JPEG Lossless
// predictor selection value.
func PredictorName(predictor int) string {
	switch predictor {
	case 1:
		return "Ra (left)"
	case 2:
		return "Rb (above)"
	case 3:
		return "Rc (above-left)"
	case 4:
		return "Ra + Rb - Rc"
	case 5:
		return "Ra + ((Rb - Rc) >> 1)"
	case 6:
		return "Rb + ((Ra - Rc) >> 1)"
	case 7:
		return "(Ra + Rb) >> 1"
	default:
		return "unknown"
	}
}
