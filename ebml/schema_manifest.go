package ebml

import "github.com/varanine/daqfile/format"

// Element ids of the device manifest dialect. The manifest is a small
// factory-written container on a separate flash partition; it reuses the
// same framing rules with millisecond date resolution.
const (
	IDDeviceManifest        uint32 = 0x5DA0
	IDManifestSerial        uint32 = 0x5DA1
	IDManifestDeviceName    uint32 = 0x5DA2
	IDManifestBirthDate     uint32 = 0x5DA3
	IDManifestPartNumber    uint32 = 0x5DA4
	IDManifestHwRev         uint32 = 0x5DA5
	IDManifestCapacityBytes uint32 = 0x5DA6
)

var manifestSchema = mustSchema(NewSchema("manifest", DateMilliseconds, []ElementDef{
	{ID: IDDeviceManifest, Name: "DeviceManifest", Type: format.TypeMaster, Mandatory: true},
	{ID: IDManifestSerial, Name: "ManifestSerial", Type: format.TypeUint, Parent: IDDeviceManifest, Mandatory: true},
	{ID: IDManifestDeviceName, Name: "ManifestDeviceName", Type: format.TypeUnicode, Parent: IDDeviceManifest},
	{ID: IDManifestBirthDate, Name: "ManifestBirthDate", Type: format.TypeDate, Parent: IDDeviceManifest},
	{ID: IDManifestPartNumber, Name: "ManifestPartNumber", Type: format.TypeString, Parent: IDDeviceManifest},
	{ID: IDManifestHwRev, Name: "ManifestHwRev", Type: format.TypeUint, Parent: IDDeviceManifest},
	{ID: IDManifestCapacityBytes, Name: "ManifestCapacityBytes", Type: format.TypeUint, Parent: IDDeviceManifest},
}))

// ManifestSchema returns the schema of the device manifest dialect.
// The returned schema is shared, immutable, and safe for concurrent use.
func ManifestSchema() *Schema {
	return manifestSchema
}
