// Package dicomtag defines the PHI and KEEP tag sets that drive
// anonymization. The approach is allowlist-based: only tags in KeepTags
// (plus PixelData) survive anonymization. Everything else is deleted,
// including any tag in PHITags and every private tag.
package dicomtag

import "github.com/suyashkumar/dicom/pkg/tag"

// PHITags are deleted unconditionally during anonymization.
var PHITags = map[tag.Tag]struct{}{
	// Patient identification
	{Group: 0x0010, Element: 0x0010}: {}, // PatientName
	{Group: 0x0010, Element: 0x0020}: {}, // PatientID
	{Group: 0x0010, Element: 0x0030}: {}, // PatientBirthDate
	{Group: 0x0010, Element: 0x1000}: {}, // OtherPatientIDs
	{Group: 0x0010, Element: 0x1001}: {}, // OtherPatientNames
	{Group: 0x0010, Element: 0x0021}: {}, // IssuerOfPatientID
	{Group: 0x0010, Element: 0x1040}: {}, // PatientAddress
	{Group: 0x0010, Element: 0x2154}: {}, // PatientTelephoneNumbers
	{Group: 0x0010, Element: 0x21B0}: {}, // AdditionalPatientHistory
	{Group: 0x0010, Element: 0x4000}: {}, // PatientComments

	// Physician / operator identification
	{Group: 0x0008, Element: 0x0090}: {}, // ReferringPhysicianName
	{Group: 0x0008, Element: 0x1050}: {}, // PerformingPhysicianName
	{Group: 0x0008, Element: 0x1070}: {}, // OperatorsName
	{Group: 0x0032, Element: 0x1032}: {}, // RequestingPhysician

	// Institution
	{Group: 0x0008, Element: 0x0080}: {}, // InstitutionName
	{Group: 0x0008, Element: 0x0081}: {}, // InstitutionAddress

	// Sequences that may contain PHI
	{Group: 0x0040, Element: 0x0275}: {}, // RequestAttributesSequence
}

// KeepTags is the allowlist. A tag not in this set (and not PixelData)
// is dropped during anonymization regardless of whether it also
// appears in PHITags.
var KeepTags = map[tag.Tag]struct{}{
	// Identifiers (non-patient). StudyID (0020,0010) is deliberately
	// excluded: it can mirror PatientID at some sites.
	{Group: 0x0008, Element: 0x0050}: {}, // AccessionNumber
	{Group: 0x0020, Element: 0x000D}: {}, // StudyInstanceUID
	{Group: 0x0020, Element: 0x000E}: {}, // SeriesInstanceUID
	{Group: 0x0008, Element: 0x0018}: {}, // SOPInstanceUID
	{Group: 0x0008, Element: 0x0016}: {}, // SOPClassUID
	{Group: 0x0020, Element: 0x0052}: {}, // FrameOfReferenceUID

	// Study/series metadata
	{Group: 0x0008, Element: 0x0005}: {}, // SpecificCharacterSet
	{Group: 0x0008, Element: 0x0008}: {}, // ImageType
	{Group: 0x0008, Element: 0x0020}: {}, // StudyDate
	{Group: 0x0008, Element: 0x0021}: {}, // SeriesDate
	{Group: 0x0008, Element: 0x0030}: {}, // StudyTime
	{Group: 0x0008, Element: 0x0031}: {}, // SeriesTime
	{Group: 0x0008, Element: 0x0060}: {}, // Modality
	{Group: 0x0008, Element: 0x0061}: {}, // ModalitiesInStudy
	{Group: 0x0008, Element: 0x1030}: {}, // StudyDescription
	{Group: 0x0008, Element: 0x103E}: {}, // SeriesDescription
	{Group: 0x0020, Element: 0x0011}: {}, // SeriesNumber
	{Group: 0x0020, Element: 0x0013}: {}, // InstanceNumber
	{Group: 0x0008, Element: 0x0070}: {}, // Manufacturer
	{Group: 0x0008, Element: 0x1090}: {}, // ManufacturerModelName
	{Group: 0x0018, Element: 0x1020}: {}, // SoftwareVersions
	{Group: 0x0020, Element: 0x4000}: {}, // ImageComments (study-level, rarely PHI)

	// Patient demographics (non-identifying alone)
	{Group: 0x0010, Element: 0x0040}: {}, // PatientSex
	{Group: 0x0010, Element: 0x1010}: {}, // PatientAge
	{Group: 0x0010, Element: 0x1020}: {}, // PatientSize
	{Group: 0x0010, Element: 0x1030}: {}, // PatientWeight

	// Acquisition parameters
	{Group: 0x0018, Element: 0x0010}: {}, // ContrastBolusAgent
	{Group: 0x0018, Element: 0x0015}: {}, // BodyPartExamined
	{Group: 0x0018, Element: 0x0020}: {}, // ScanningSequence
	{Group: 0x0018, Element: 0x0021}: {}, // SequenceVariant
	{Group: 0x0018, Element: 0x0022}: {}, // ScanOptions
	{Group: 0x0018, Element: 0x0023}: {}, // MRAcquisitionType
	{Group: 0x0018, Element: 0x0024}: {}, // SequenceName
	{Group: 0x0018, Element: 0x0050}: {}, // SliceThickness
	{Group: 0x0018, Element: 0x0060}: {}, // KVP
	{Group: 0x0018, Element: 0x0080}: {}, // RepetitionTime
	{Group: 0x0018, Element: 0x0081}: {}, // EchoTime
	{Group: 0x0018, Element: 0x0082}: {}, // InversionTime
	{Group: 0x0018, Element: 0x0083}: {}, // NumberOfAverages
	{Group: 0x0018, Element: 0x0084}: {}, // ImagingFrequency
	{Group: 0x0018, Element: 0x0085}: {}, // ImagedNucleus
	{Group: 0x0018, Element: 0x0086}: {}, // EchoNumbers
	{Group: 0x0018, Element: 0x0087}: {}, // MagneticFieldStrength
	{Group: 0x0018, Element: 0x0088}: {}, // SpacingBetweenSlices
	{Group: 0x0018, Element: 0x0090}: {}, // DataCollectionDiameter
	{Group: 0x0018, Element: 0x0091}: {}, // EchoTrainLength
	{Group: 0x0018, Element: 0x0093}: {}, // PercentSampling
	{Group: 0x0018, Element: 0x0094}: {}, // PercentPhaseFieldOfView
	{Group: 0x0018, Element: 0x0095}: {}, // PixelBandwidth
	{Group: 0x0018, Element: 0x1000}: {}, // DeviceSerialNumber
	{Group: 0x0018, Element: 0x1030}: {}, // ProtocolName
	{Group: 0x0018, Element: 0x1040}: {}, // ContrastBolusRoute
	{Group: 0x0018, Element: 0x1050}: {}, // SpatialResolution
	{Group: 0x0018, Element: 0x1060}: {}, // TriggerTime
	{Group: 0x0018, Element: 0x1100}: {}, // ReconstructionDiameter
	{Group: 0x0018, Element: 0x1110}: {}, // DistanceSourceToDetector
	{Group: 0x0018, Element: 0x1111}: {}, // DistanceSourceToPatient
	{Group: 0x0018, Element: 0x1120}: {}, // GantryDetectorTilt
	{Group: 0x0018, Element: 0x1130}: {}, // TableHeight
	{Group: 0x0018, Element: 0x1140}: {}, // RotationDirection
	{Group: 0x0018, Element: 0x1150}: {}, // ExposureTime
	{Group: 0x0018, Element: 0x1151}: {}, // XRayTubeCurrent
	{Group: 0x0018, Element: 0x1152}: {}, // Exposure
	{Group: 0x0018, Element: 0x1153}: {}, // ExposureInuAs
	{Group: 0x0018, Element: 0x1160}: {}, // FilterType
	{Group: 0x0018, Element: 0x1170}: {}, // GeneratorPower
	{Group: 0x0018, Element: 0x1190}: {}, // FocalSpots
	{Group: 0x0018, Element: 0x1200}: {}, // DateOfLastCalibration
	{Group: 0x0018, Element: 0x1201}: {}, // TimeOfLastCalibration
	{Group: 0x0018, Element: 0x1210}: {}, // ConvolutionKernel
	{Group: 0x0018, Element: 0x1250}: {}, // ReceiveCoilName
	{Group: 0x0018, Element: 0x1251}: {}, // TransmitCoilName
	{Group: 0x0018, Element: 0x1310}: {}, // AcquisitionMatrix
	{Group: 0x0018, Element: 0x1312}: {}, // InPlanePhaseEncodingDirection
	{Group: 0x0018, Element: 0x1314}: {}, // FlipAngle
	{Group: 0x0018, Element: 0x1316}: {}, // SAR
	{Group: 0x0018, Element: 0x5100}: {}, // PatientPosition
	{Group: 0x0018, Element: 0x9073}: {}, // AcquisitionDuration
	{Group: 0x0018, Element: 0x9087}: {}, // DiffusionBValue
	{Group: 0x0018, Element: 0x9089}: {}, // DiffusionGradientOrientation

	// Pixel description
	{Group: 0x0028, Element: 0x0002}: {}, // SamplesPerPixel
	{Group: 0x0028, Element: 0x0004}: {}, // PhotometricInterpretation
	{Group: 0x0028, Element: 0x0006}: {}, // PlanarConfiguration
	{Group: 0x0028, Element: 0x0008}: {}, // NumberOfFrames
	{Group: 0x0028, Element: 0x0010}: {}, // Rows
	{Group: 0x0028, Element: 0x0011}: {}, // Columns
	{Group: 0x0028, Element: 0x0030}: {}, // PixelSpacing
	{Group: 0x0028, Element: 0x0100}: {}, // BitsAllocated
	{Group: 0x0028, Element: 0x0101}: {}, // BitsStored
	{Group: 0x0028, Element: 0x0102}: {}, // HighBit
	{Group: 0x0028, Element: 0x0103}: {}, // PixelRepresentation
	{Group: 0x0028, Element: 0x0120}: {}, // PixelPaddingValue
	{Group: 0x0028, Element: 0x1050}: {}, // WindowCenter
	{Group: 0x0028, Element: 0x1051}: {}, // WindowWidth
	{Group: 0x0028, Element: 0x1052}: {}, // RescaleIntercept
	{Group: 0x0028, Element: 0x1053}: {}, // RescaleSlope
	{Group: 0x0028, Element: 0x1054}: {}, // RescaleType
	{Group: 0x0028, Element: 0x1055}: {}, // WindowCenterWidthExplanation
	{Group: 0x0028, Element: 0x2110}: {}, // LossyImageCompression
	{Group: 0x0028, Element: 0x2112}: {}, // LossyImageCompressionRatio

	// Spatial / positioning
	{Group: 0x0020, Element: 0x0032}: {}, // ImagePositionPatient
	{Group: 0x0020, Element: 0x0037}: {}, // ImageOrientationPatient
	{Group: 0x0020, Element: 0x1041}: {}, // SliceLocation

	// Pixel data
	{Group: 0x7FE0, Element: 0x0010}: {}, // PixelData

	// Transfer syntax / file meta
	{Group: 0x0002, Element: 0x0000}: {}, // FileMetaInformationGroupLength
	{Group: 0x0002, Element: 0x0001}: {}, // FileMetaInformationVersion
	{Group: 0x0002, Element: 0x0002}: {}, // MediaStorageSOPClassUID
	{Group: 0x0002, Element: 0x0003}: {}, // MediaStorageSOPInstanceUID
	{Group: 0x0002, Element: 0x0010}: {}, // TransferSyntaxUID
	{Group: 0x0002, Element: 0x0012}: {}, // ImplementationClassUID
	{Group: 0x0002, Element: 0x0013}: {}, // ImplementationVersionName

	// Count tags (C-FIND responses)
	{Group: 0x0020, Element: 0x1206}: {}, // NumberOfStudyRelatedSeries
	{Group: 0x0020, Element: 0x1208}: {}, // NumberOfStudyRelatedInstances
	{Group: 0x0020, Element: 0x1209}: {}, // NumberOfSeriesRelatedInstances
}

// IsPHI reports whether t is on the explicit deletion list.
func IsPHI(t tag.Tag) bool {
	_, ok := PHITags[t]
	return ok
}

// IsKept reports whether t is on the allowlist.
func IsKept(t tag.Tag) bool {
	_, ok := KeepTags[t]
	return ok
}

// IsPrivate reports whether t is a private tag. Private tags carry
// odd group numbers and are always dropped.
func IsPrivate(t tag.Tag) bool {
	return t.Group%2 != 0
}
