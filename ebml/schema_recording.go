package ebml

import "github.com/varanine/daqfile/format"

// Element ids of the recording dialect. Two-byte ids carry the 0x40 width
// marker in their first byte; the hot data-block elements use one-byte ids
// to keep per-block framing overhead minimal.
const (
	IDRecordingProperties uint32 = 0x5250
	IDRecorderTypeUID     uint32 = 0x5201
	IDRecorderSerial      uint32 = 0x5202
	IDRecorderName        uint32 = 0x5203
	IDProductName         uint32 = 0x5204
	IDHwRev               uint32 = 0x5205
	IDFwRev               uint32 = 0x5206
	IDDateCreated         uint32 = 0x5207

	IDSensorList         uint32 = 0x5260
	IDSensorEntry        uint32 = 0x5261
	IDSensorID           uint32 = 0x5262
	IDSensorName         uint32 = 0x5263
	IDSensorTraceability uint32 = 0x5264

	IDChannelList         uint32 = 0x5270
	IDChannelEntry        uint32 = 0x5271
	IDChannelID           uint32 = 0x5272
	IDChannelName         uint32 = 0x5273
	IDChannelSensorRef    uint32 = 0x5274
	IDChannelFormat       uint32 = 0x5275
	IDChannelTransformRef uint32 = 0x5276
	IDChannelCompression  uint32 = 0x5277
	IDChannelTickModulus  uint32 = 0x527D

	IDSubChannelEntry        uint32 = 0x5278
	IDSubChannelID           uint32 = 0x5279
	IDSubChannelName         uint32 = 0x527A
	IDSubChannelUnits        uint32 = 0x527B
	IDSubChannelTransformRef uint32 = 0x527C
	IDSubChannelRangeLow     uint32 = 0x5285
	IDSubChannelRangeHigh    uint32 = 0x5286
	IDWarningRangeLow        uint32 = 0x5287
	IDWarningRangeHigh       uint32 = 0x5288

	IDCalibrationList        uint32 = 0x5290
	IDUnivariatePoly         uint32 = 0x5291
	IDCalID                  uint32 = 0x5292
	IDPolyCoef               uint32 = 0x5293
	IDBivariatePoly          uint32 = 0x5294
	IDCalReferenceChannel    uint32 = 0x5295
	IDCalReferenceSubChannel uint32 = 0x5296
	IDBivariateCols          uint32 = 0x5297
	IDCombinedPoly           uint32 = 0x5298
	IDCalMemberRef           uint32 = 0x5299
	IDPolyPoly               uint32 = 0x529A
	IDBivariateCalID         uint32 = 0x529B
	IDBivariateCoef          uint32 = 0x529C
	IDCombinedCalID          uint32 = 0x529D
	IDPolyPolyCalID          uint32 = 0x529E
	IDPolyPolyMemberRef      uint32 = 0x529F
	IDPolyPolyOuterCoef      uint32 = 0x52A0

	IDTimeBaseUTC uint32 = 0x52A1

	IDSessionHeader    uint32 = 0x52B0
	IDSessionID        uint32 = 0x52B1
	IDSessionStartTime uint32 = 0x52B2
	IDSessionUTCStart  uint32 = 0x52B3
	IDSessionFooter    uint32 = 0x52B4
	IDSessionEndID     uint32 = 0x52B5
	IDSessionEndTime   uint32 = 0x52B6

	IDChannelDataBlock   uint32 = 0xA1
	IDBlockChannelIDRef  uint32 = 0xB0
	IDBlockStartTimeCode uint32 = 0xB1
	IDBlockEndTimeCode   uint32 = 0xB2
	IDBlockPayload       uint32 = 0xB3
)

var recordingSchema = mustSchema(NewSchema("recording", DateNanoseconds, []ElementDef{
	{ID: IDRecordingProperties, Name: "RecordingProperties", Type: format.TypeMaster, Mandatory: true},
	{ID: IDRecorderTypeUID, Name: "RecorderTypeUID", Type: format.TypeUint, Parent: IDRecordingProperties},
	{ID: IDRecorderSerial, Name: "RecorderSerial", Type: format.TypeUint, Parent: IDRecordingProperties},
	{ID: IDRecorderName, Name: "RecorderName", Type: format.TypeUnicode, Parent: IDRecordingProperties},
	{ID: IDProductName, Name: "ProductName", Type: format.TypeString, Parent: IDRecordingProperties},
	{ID: IDHwRev, Name: "HwRev", Type: format.TypeUint, Parent: IDRecordingProperties},
	{ID: IDFwRev, Name: "FwRev", Type: format.TypeUint, Parent: IDRecordingProperties},
	{ID: IDDateCreated, Name: "DateCreated", Type: format.TypeDate, Parent: IDRecordingProperties},

	{ID: IDSensorList, Name: "SensorList", Type: format.TypeMaster},
	{ID: IDSensorEntry, Name: "SensorEntry", Type: format.TypeMaster, Parent: IDSensorList, Multiple: true},
	{ID: IDSensorID, Name: "SensorID", Type: format.TypeUint, Parent: IDSensorEntry, Mandatory: true},
	{ID: IDSensorName, Name: "SensorName", Type: format.TypeUnicode, Parent: IDSensorEntry},
	{ID: IDSensorTraceability, Name: "SensorTraceability", Type: format.TypeString, Parent: IDSensorEntry},

	{ID: IDChannelList, Name: "ChannelList", Type: format.TypeMaster},
	{ID: IDChannelEntry, Name: "ChannelEntry", Type: format.TypeMaster, Parent: IDChannelList, Multiple: true},
	{ID: IDChannelID, Name: "ChannelID", Type: format.TypeUint, Parent: IDChannelEntry, Mandatory: true},
	{ID: IDChannelName, Name: "ChannelName", Type: format.TypeUnicode, Parent: IDChannelEntry},
	{ID: IDChannelSensorRef, Name: "ChannelSensorRef", Type: format.TypeUint, Parent: IDChannelEntry},
	{ID: IDChannelFormat, Name: "ChannelFormat", Type: format.TypeString, Parent: IDChannelEntry, Mandatory: true},
	{ID: IDChannelTransformRef, Name: "ChannelTransformRef", Type: format.TypeUint, Parent: IDChannelEntry},
	{ID: IDChannelCompression, Name: "ChannelCompression", Type: format.TypeUint, Parent: IDChannelEntry},
	{ID: IDChannelTickModulus, Name: "ChannelTickModulus", Type: format.TypeUint, Parent: IDChannelEntry},

	{ID: IDSubChannelEntry, Name: "SubChannelEntry", Type: format.TypeMaster, Parent: IDChannelEntry, Multiple: true},
	{ID: IDSubChannelID, Name: "SubChannelID", Type: format.TypeUint, Parent: IDSubChannelEntry, Mandatory: true},
	{ID: IDSubChannelName, Name: "SubChannelName", Type: format.TypeUnicode, Parent: IDSubChannelEntry},
	{ID: IDSubChannelUnits, Name: "SubChannelUnits", Type: format.TypeString, Parent: IDSubChannelEntry},
	{ID: IDSubChannelTransformRef, Name: "SubChannelTransformRef", Type: format.TypeUint, Parent: IDSubChannelEntry},
	{ID: IDSubChannelRangeLow, Name: "SubChannelRangeLow", Type: format.TypeFloat, Parent: IDSubChannelEntry},
	{ID: IDSubChannelRangeHigh, Name: "SubChannelRangeHigh", Type: format.TypeFloat, Parent: IDSubChannelEntry},
	{ID: IDWarningRangeLow, Name: "WarningRangeLow", Type: format.TypeFloat, Parent: IDSubChannelEntry},
	{ID: IDWarningRangeHigh, Name: "WarningRangeHigh", Type: format.TypeFloat, Parent: IDSubChannelEntry},

	{ID: IDCalibrationList, Name: "CalibrationList", Type: format.TypeMaster},
	{ID: IDUnivariatePoly, Name: "UnivariatePoly", Type: format.TypeMaster, Parent: IDCalibrationList, Multiple: true},
	{ID: IDCalID, Name: "CalID", Type: format.TypeUint, Parent: IDUnivariatePoly, Mandatory: true},
	{ID: IDPolyCoef, Name: "PolyCoef", Type: format.TypeFloat, Parent: IDUnivariatePoly, Multiple: true},
	{ID: IDBivariatePoly, Name: "BivariatePoly", Type: format.TypeMaster, Parent: IDCalibrationList, Multiple: true},
	{ID: IDBivariateCalID, Name: "BivariateCalID", Type: format.TypeUint, Parent: IDBivariatePoly, Mandatory: true},
	{ID: IDBivariateCoef, Name: "BivariateCoef", Type: format.TypeFloat, Parent: IDBivariatePoly, Multiple: true},
	{ID: IDCalReferenceChannel, Name: "CalReferenceChannel", Type: format.TypeUint, Parent: IDBivariatePoly},
	{ID: IDCalReferenceSubChannel, Name: "CalReferenceSubChannel", Type: format.TypeUint, Parent: IDBivariatePoly},
	{ID: IDBivariateCols, Name: "BivariateCols", Type: format.TypeUint, Parent: IDBivariatePoly},
	{ID: IDCombinedPoly, Name: "CombinedPoly", Type: format.TypeMaster, Parent: IDCalibrationList, Multiple: true},
	{ID: IDCombinedCalID, Name: "CombinedCalID", Type: format.TypeUint, Parent: IDCombinedPoly, Mandatory: true},
	{ID: IDCalMemberRef, Name: "CalMemberRef", Type: format.TypeUint, Parent: IDCombinedPoly, Multiple: true},
	{ID: IDPolyPoly, Name: "PolyPoly", Type: format.TypeMaster, Parent: IDCalibrationList, Multiple: true},
	{ID: IDPolyPolyCalID, Name: "PolyPolyCalID", Type: format.TypeUint, Parent: IDPolyPoly, Mandatory: true},
	{ID: IDPolyPolyMemberRef, Name: "PolyPolyMemberRef", Type: format.TypeUint, Parent: IDPolyPoly, Multiple: true},
	{ID: IDPolyPolyOuterCoef, Name: "PolyPolyOuterCoef", Type: format.TypeFloat, Parent: IDPolyPoly, Multiple: true},

	{ID: IDTimeBaseUTC, Name: "TimeBaseUTC", Type: format.TypeDate},

	{ID: IDSessionHeader, Name: "SessionHeader", Type: format.TypeMaster, Multiple: true},
	{ID: IDSessionID, Name: "SessionID", Type: format.TypeUint, Parent: IDSessionHeader, Mandatory: true},
	{ID: IDSessionStartTime, Name: "SessionStartTime", Type: format.TypeUint, Parent: IDSessionHeader},
	{ID: IDSessionUTCStart, Name: "SessionUTCStart", Type: format.TypeDate, Parent: IDSessionHeader},
	{ID: IDSessionFooter, Name: "SessionFooter", Type: format.TypeMaster, Multiple: true},
	{ID: IDSessionEndID, Name: "SessionEndID", Type: format.TypeUint, Parent: IDSessionFooter, Mandatory: true},
	{ID: IDSessionEndTime, Name: "SessionEndTime", Type: format.TypeUint, Parent: IDSessionFooter},

	{ID: IDChannelDataBlock, Name: "ChannelDataBlock", Type: format.TypeMaster, Multiple: true},
	{ID: IDBlockChannelIDRef, Name: "BlockChannelIDRef", Type: format.TypeUint, Parent: IDChannelDataBlock, Mandatory: true},
	{ID: IDBlockStartTimeCode, Name: "BlockStartTimeCode", Type: format.TypeUint, Parent: IDChannelDataBlock, Mandatory: true},
	{ID: IDBlockEndTimeCode, Name: "BlockEndTimeCode", Type: format.TypeUint, Parent: IDChannelDataBlock},
	{ID: IDBlockPayload, Name: "BlockPayload", Type: format.TypeBinary, Parent: IDChannelDataBlock, Mandatory: true},
}))

// RecordingSchema returns the schema of the main recording dialect.
// The returned schema is shared, immutable, and safe for concurrent use.
func RecordingSchema() *Schema {
	return recordingSchema
}
