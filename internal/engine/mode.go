package engine

// EditMode is the single, mutually exclusive editing state of the canvas.
type EditMode string

const (
	ModeNone          EditMode = "None"
	ModeSelected      EditMode = "Selected"
	ModeMultiSelected EditMode = "MultiSelected"
	ModeMoving        EditMode = "Moving"
	ModeResizing      EditMode = "Resizing"
	ModePanning       EditMode = "Panning"
	ModeTextEditing   EditMode = "TextEditing"
)

// modeForCount maps a selection size to its resting mode.
func modeForCount(n int) EditMode {
	switch {
	case n <= 0:
		return ModeNone
	case n == 1:
		return ModeSelected
	default:
		return ModeMultiSelected
	}
}

// Tool is the active tool reported by the host's tool palette.
type Tool string

const (
	ToolSelect Tool = "select"
	ToolPan    Tool = "pan"
	ToolShape  Tool = "shape"
	ToolText   Tool = "text"
)
