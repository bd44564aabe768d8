// Package inspector measures how many bytes a page load transferred and
// reports the total to the daemon as a single page-size message.
package inspector

// ResourceEntry is one resource-timing entry of a page load.
type ResourceEntry struct {
	Name         string `json:"name"`
	TransferSize int64  `json:"transferSize"`
}

// Message is the one-shot page-size message.
type Message struct {
	PageSize int64 `json:"pageSize"`
}

// PageSize sums the transfer size of every resource entry and adds the byte
// length of the serialized document. Unknown or negative transfer sizes
// count as zero.
func PageSize(entries []ResourceEntry, document string) int64 {
	var total int64
	for _, e := range entries {
		if e.TransferSize > 0 {
			total += e.TransferSize
		}
	}
	return total + int64(len(document))
}
