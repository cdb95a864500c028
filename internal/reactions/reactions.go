package reactions

// Grouped is one emoji's aggregate on a message as seen by a viewer.
type Grouped struct {
	Emoji       string `json:"emoji"`
	Count       int    `json:"count"`
	ReactedByMe bool   `json:"reactedByMe"`
}

// Row is a single stored (emoji, user) reaction.
type Row struct {
	Emoji  string
	UserID string
}

// Group collapses raw reaction rows into per-emoji aggregates. Output
// order is first-occurrence order of each emoji in the input; callers must
// not depend on any particular ordering.
func Group(rows []Row, viewerID string) []Grouped {
	index := make(map[string]int, len(rows))
	grouped := make([]Grouped, 0, len(rows))

	for _, row := range rows {
		if i, ok := index[row.Emoji]; ok {
			grouped[i].Count++
			if row.UserID == viewerID {
				grouped[i].ReactedByMe = true
			}
			continue
		}
		index[row.Emoji] = len(grouped)
		grouped = append(grouped, Grouped{
			Emoji:       row.Emoji,
			Count:       1,
			ReactedByMe: row.UserID == viewerID,
		})
	}

	return grouped
}
