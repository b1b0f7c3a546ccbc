package container

import "github.com/canonraw/cr2lossless/cr2err"

const (
	tagExifIFDPointer = 0x8769
	tagMakerNote      = 0x927c
	tagSensorInfo     = 224
)

// SensorInfo is Canon's MakerNote SensorInfo (tag 224) array. The core only
// needs SensorWidth/SensorHeight (to cross-check against SOF3's
// samples_per_line/num_lines); the border fields are carried for a future
// consumer (e.g. a border-crop visualisation) but unused by the decode
// core itself.
type SensorInfo struct {
	SensorWidth  int
	SensorHeight int
	// Border fields, 0-based index 5-8 in the SensorInfo array (the same
	// indexing that puts SensorWidth at index 1).
	LeftBorder, TopBorder, RightBorder, BottomBorder int
}

// ReadExifAndMakerNote walks IFD0's EXIF sub-IFD pointer (0x8769) and,
// within it, the MakerNote pointer (0x927c), returning the SensorInfo tag
// it contains.
func ReadExifAndMakerNote(data []byte, ifd0 []Entry) (*SensorInfo, error) {
	exifEntry, ok := Find(ifd0, tagExifIFDPointer)
	if !ok {
		return nil, cr2err.New(cr2err.MalformedContainer, "missing EXIF sub-IFD pointer")
	}
	exifEntries, err := ReadIFD(data, exifEntry.ValueOffset)
	if err != nil {
		return nil, err
	}

	mnEntry, ok := Find(exifEntries, tagMakerNote)
	if !ok {
		return nil, cr2err.New(cr2err.MalformedContainer, "missing MakerNote pointer")
	}
	// Canon's MakerNote is itself a TIFF IFD, sharing the main file's byte
	// order and offset base.
	mnEntries, err := ReadIFD(data, mnEntry.ValueOffset)
	if err != nil {
		return nil, err
	}

	siEntry, ok := Find(mnEntries, tagSensorInfo)
	if !ok {
		return nil, cr2err.New(cr2err.MalformedContainer, "missing MakerNote SensorInfo tag")
	}
	values, err := ReadShorts(data, siEntry)
	if err != nil {
		return nil, err
	}
	if len(values) < 9 {
		return nil, cr2err.New(cr2err.MalformedContainer, "SensorInfo array shorter than expected")
	}

	return &SensorInfo{
		SensorWidth:   int(values[1]),
		SensorHeight:  int(values[2]),
		LeftBorder:    int(values[5]),
		TopBorder:     int(values[6]),
		RightBorder:   int(values[7]),
		BottomBorder:  int(values[8]),
	}, nil
}
