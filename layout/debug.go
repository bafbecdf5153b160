package layout

import (
	"encoding/json"
	"os"
)

// Debug 汇总一次合成的排版信息。
type Debug struct {
	Box        Box          `json:"box"`
	Runs       []StyledRun  `json:"runs,omitempty"`
	Text       *FitResult   `json:"text,omitempty"`
	Placements []Placement  `json:"placements,omitempty"`
	Paste      *PasteLayout `json:"paste,omitempty"`
}

// WriteDebugJSON 将排版结果输出为 JSON，便于调试或可视化。
func WriteDebugJSON(d *Debug, path string) error {
	if d == nil {
		return nil
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
