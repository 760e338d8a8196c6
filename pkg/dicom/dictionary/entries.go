package dictionary

import (
	"github.com/sanyexieai/dcmp10/pkg/dicom/tag"
	"github.com/sanyexieai/dcmp10/pkg/dicom/vr"
)

// buildEntries returns the standard dictionary table. Coverage follows the
// modules already named in pkg/dicom/tag (File Meta Information, Patient,
// General Study/Series/Equipment, SOP Common, Frame of Reference, Image
// Pixel) rather than the full PS3.6 table, which a generator would own.
func buildEntries() []Entry {
	return []Entry{
		// File Meta Information (group 0002).
		{tag.FileMetaInformationGroupLength, vr.UL, VM{1, 1}, "FileMetaInformationGroupLength", "File Meta Information Group Length"},
		{tag.FileMetaInformationVersion, vr.OB, VM{1, 1}, "FileMetaInformationVersion", "File Meta Information Version"},
		{tag.MediaStorageSOPClassUID, vr.UI, VM{1, 1}, "MediaStorageSOPClassUID", "Media Storage SOP Class UID"},
		{tag.MediaStorageSOPInstanceUID, vr.UI, VM{1, 1}, "MediaStorageSOPInstanceUID", "Media Storage SOP Instance UID"},
		{tag.TransferSyntaxUID, vr.UI, VM{1, 1}, "TransferSyntaxUID", "Transfer Syntax UID"},
		{tag.ImplementationClassUID, vr.UI, VM{1, 1}, "ImplementationClassUID", "Implementation Class UID"},
		{tag.ImplementationVersionName, vr.SH, VM{1, 1}, "ImplementationVersionName", "Implementation Version Name"},
		{tag.SpecificCharacterSet, vr.CS, VM{1, 0}, "SpecificCharacterSet", "Specific Character Set"},

		// Patient Module.
		{tag.PatientName, vr.PN, VM{1, 1}, "PatientName", "Patient's Name"},
		{tag.PatientID, vr.LO, VM{1, 1}, "PatientID", "Patient ID"},
		{tag.PatientBirthDate, vr.DA, VM{1, 1}, "PatientBirthDate", "Patient's Birth Date"},
		{tag.PatientSex, vr.CS, VM{1, 1}, "PatientSex", "Patient's Sex"},
		{tag.PatientAge, vr.AS, VM{1, 1}, "PatientAge", "Patient's Age"},
		{tag.PatientComments, vr.LT, VM{1, 1}, "PatientComments", "Patient Comments"},

		// General Study Module.
		{tag.StudyDate, vr.DA, VM{1, 1}, "StudyDate", "Study Date"},
		{tag.StudyTime, vr.TM, VM{1, 1}, "StudyTime", "Study Time"},
		{tag.AccessionNumber, vr.SH, VM{1, 1}, "AccessionNumber", "Accession Number"},
		{tag.StudyDescription, vr.LO, VM{1, 1}, "StudyDescription", "Study Description"},
		{tag.StudyInstanceUID, vr.UI, VM{1, 1}, "StudyInstanceUID", "Study Instance UID"},
		{tag.StudyID, vr.SH, VM{1, 1}, "StudyID", "Study ID"},

		// General Series Module.
		{tag.Modality, vr.CS, VM{1, 1}, "Modality", "Modality"},
		{tag.SeriesInstanceUID, vr.UI, VM{1, 1}, "SeriesInstanceUID", "Series Instance UID"},
		{tag.SeriesNumber, vr.IS, VM{1, 1}, "SeriesNumber", "Series Number"},
		{tag.InstanceNumber, vr.IS, VM{1, 1}, "InstanceNumber", "Instance Number"},
		{tag.SeriesDescription, vr.LO, VM{1, 1}, "SeriesDescription", "Series Description"},
		{tag.SeriesDate, vr.DA, VM{1, 1}, "SeriesDate", "Series Date"},
		{tag.SeriesTime, vr.TM, VM{1, 1}, "SeriesTime", "Series Time"},
		{tag.PresentationIntentType, vr.CS, VM{1, 1}, "PresentationIntentType", "Presentation Intent Type"},

		// General Equipment Module.
		{tag.Manufacturer, vr.LO, VM{1, 1}, "Manufacturer", "Manufacturer"},
		{tag.InstitutionName, vr.LO, VM{1, 1}, "InstitutionName", "Institution Name"},
		{tag.InstitutionalDeptName, vr.LO, VM{1, 1}, "InstitutionalDepartmentName", "Institutional Department Name"},
		{tag.StationName, vr.SH, VM{1, 1}, "StationName", "Station Name"},
		{tag.ManufacturerModelName, vr.LO, VM{1, 1}, "ManufacturerModelName", "Manufacturer's Model Name"},
		{tag.DeviceSerialNumber, vr.LO, VM{1, 1}, "DeviceSerialNumber", "Device Serial Number"},
		{tag.SoftwareVersions, vr.LO, VM{1, 0}, "SoftwareVersions", "Software Versions"},

		// SOP Common Module.
		{tag.SOPClassUID, vr.UI, VM{1, 1}, "SOPClassUID", "SOP Class UID"},
		{tag.SOPInstanceUID, vr.UI, VM{1, 1}, "SOPInstanceUID", "SOP Instance UID"},
		{tag.InstanceCreationDate, vr.DA, VM{1, 1}, "InstanceCreationDate", "Instance Creation Date"},
		{tag.InstanceCreationTime, vr.TM, VM{1, 1}, "InstanceCreationTime", "Instance Creation Time"},

		// Frame of Reference Module.
		{tag.FrameOfReferenceUID, vr.UI, VM{1, 1}, "FrameOfReferenceUID", "Frame of Reference UID"},
		{tag.PositionReferenceIndicator, vr.LO, VM{1, 1}, "PositionReferenceIndicator", "Position Reference Indicator"},

		// Image Pixel Module.
		{tag.SamplesPerPixel, vr.US, VM{1, 1}, "SamplesPerPixel", "Samples per Pixel"},
		{tag.PhotometricInterpretation, vr.CS, VM{1, 1}, "PhotometricInterpretation", "Photometric Interpretation"},
		{tag.PlanarConfiguration, vr.US, VM{1, 1}, "PlanarConfiguration", "Planar Configuration"},
		{tag.Rows, vr.US, VM{1, 1}, "Rows", "Rows"},
		{tag.Columns, vr.US, VM{1, 1}, "Columns", "Columns"},
		{tag.BitsAllocated, vr.US, VM{1, 1}, "BitsAllocated", "Bits Allocated"},
		{tag.BitsStored, vr.US, VM{1, 1}, "BitsStored", "Bits Stored"},
		{tag.HighBit, vr.US, VM{1, 1}, "HighBit", "High Bit"},
		{tag.PixelRepresentation, vr.US, VM{1, 1}, "PixelRepresentation", "Pixel Representation"},
		{tag.PixelData, vr.OW, VM{1, 1}, "PixelData", "Pixel Data"},
		{tag.NumberOfFrames, vr.IS, VM{1, 1}, "NumberOfFrames", "Number of Frames"},
		{tag.LUTDescriptorUS, vr.US, VM{3, 3}, "LUTDescriptor", "LUT Descriptor"},

		// Item/sequence delimiters (group 0xFFFE) have no VR of their own;
		// listed for tag_name rendering only.
		{tag.Item, vr.VR(""), VM{1, 1}, "Item", "Item"},
		{tag.ItemDelimitationItem, vr.VR(""), VM{0, 0}, "ItemDelimitationItem", "Item Delimitation Item"},
		{tag.SequenceDelimitationItem, vr.VR(""), VM{0, 0}, "SequenceDelimitationItem", "Sequence Delimitation Item"},
	}
}
