package config

// Version system:
// vMAJOR.MINOR.PATCH

// Centralized version control
const (
	// Executable
	Main_version = "v1.2.0"

	// Modular tools
	Benchmark        = "v1.1.0"
	Busco_Upload     = "v1.1.0" // Formerly "loop_directories.sh"
	Copy_Results     = "v1.0.1" // Second "loop_directories.sh"
	Accession_Upload = "v1.1.0" // Formerly "list_accessions.sh"
	Fetch            = "v1.0.0"
	Index_Pipeline   = "v1.0.2"
	Raw_Upload       = "v1.0.0"
	Files_Index      = "v0.2.0"
	Import_Features  = "v0.1.1"
	Rename_Accession = "v1.0.0"
	Busco_Overlap    = "v0.3.0"
	Sanity_check     = "v1.1.0"
)
