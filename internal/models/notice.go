package models

type Mode string

const (
	ModeLive Mode = "live"
	ModeDemo Mode = "demo"
)

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notice is a transient, user-facing notification (a toast).
type Notice struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Variant     Variant `json:"variant"`
}

func (n Notice) IsZero() bool {
	return n.Title == "" && n.Description == ""
}

func (n Notice) Destructive() bool {
	return n.Variant == VariantDestructive
}

// BulkResult tracks the progress and outcome of a bulk creation.
type BulkResult struct {
	Total     int      `json:"total"`
	Completed int      `json:"completed"`
	Failed    []string `json:"failed"`
}

func (b BulkResult) Processed() int {
	return b.Completed + len(b.Failed)
}

// Percent is the share of created items, as shown by the progress bar.
func (b BulkResult) Percent() int {
	if b.Total == 0 {
		return 0
	}
	return b.Completed * 100 / b.Total
}
