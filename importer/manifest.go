package importer

import (
	"fmt"
	"time"

	"github.com/varanine/daqfile/ebml"
)

// Manifest is a device's factory identity record, stored in its own
// container dialect with millisecond date resolution.
type Manifest struct {
	Serial        uint64
	DeviceName    string
	BirthDate     time.Time
	PartNumber    string
	HwRev         uint64
	CapacityBytes uint64
}

// ReadManifest parses a device manifest stream. The manifest reuses
// the recording codec under a separate schema; unknown elements pass
// through untouched.
func ReadManifest(src *ebml.Source) (*Manifest, error) {
	doc := ebml.NewDocument(src, ebml.ManifestSchema())

	var m *Manifest
	for root := range doc.Roots() {
		if root.ID() != ebml.IDDeviceManifest {
			continue
		}

		children, err := root.Children()
		if err != nil {
			return nil, err
		}

		m = &Manifest{}
		for _, el := range children {
			switch el.ID() {
			case ebml.IDManifestSerial:
				m.Serial, err = el.Uint()
			case ebml.IDManifestDeviceName:
				m.DeviceName, err = el.StringValue()
			case ebml.IDManifestBirthDate:
				m.BirthDate, err = dateValue(el)
			case ebml.IDManifestPartNumber:
				m.PartNumber, err = el.StringValue()
			case ebml.IDManifestHwRev:
				m.HwRev, err = el.Uint()
			case ebml.IDManifestCapacityBytes:
				m.CapacityBytes, err = el.Uint()
			}
			if err != nil {
				return nil, fmt.Errorf("failed to parse manifest: %w", err)
			}
		}
		break
	}

	if m == nil {
		if doc.Damaged() {
			return nil, fmt.Errorf("failed to read manifest: %w", doc.DamageCause())
		}
		return nil, fmt.Errorf("stream contains no device manifest")
	}
	return m, nil
}
