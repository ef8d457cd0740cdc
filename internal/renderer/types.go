package renderer

// OutputChapter is a chapter marker positioned on an output file's own
// timeline.
type OutputChapter struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Title string  `json:"title"`
}

// OutputFile is one materialized output unit of a render.
type OutputFile struct {
	// Path is the artifact-relative file name, or the absolute source path
	// when Reference is true.
	Path     string          `json:"path"`
	Duration float64         `json:"duration"`
	Chapters []OutputChapter `json:"chapters"`
	// Reference marks outputs that point at an untouched source file
	// instead of a transcoded copy in the artifact directory.
	Reference bool `json:"reference,omitempty"`
}
