package hubapi

// Command is one step of a peer command batch. The hub expects each command
// wire-encoded as a single-key JSON object tagging the variant, e.g.
// {"Exec": {"executable": "make", "args": ["-C", "/app"]}}.
type Command interface {
	commandTag() string
}

// WriteFile writes Content to FilePath on the peer.
type WriteFile struct {
	Content  string `json:"content"`
	FilePath string `json:"file_path"`
}

func (WriteFile) commandTag() string { return "WriteFile" }

// DownloadFile fetches a hub blob at URI and materializes it at FilePath,
// extracting it first when Format is FormatTar.
type DownloadFile struct {
	URI      string     `json:"uri"`
	FilePath string     `json:"file_path"`
	Format   BlobFormat `json:"format"`
}

func (DownloadFile) commandTag() string { return "DownloadFile" }

// UploadFile archives (when Format is FormatTar) FilePath on the peer and
// PUTs it to the hub blob at URI.
type UploadFile struct {
	URI      string     `json:"uri"`
	FilePath string     `json:"file_path"`
	Format   BlobFormat `json:"format"`
}

func (UploadFile) commandTag() string { return "UploadFile" }

// Exec runs Executable with Args in WorkingDir on the peer.
type Exec struct {
	Executable string   `json:"executable"`
	Args       []string `json:"args"`
	WorkingDir string   `json:"working_dir"`
}

func (Exec) commandTag() string { return "Exec" }
