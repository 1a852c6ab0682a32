package progress

// Reporter receives scan progress callbacks. Scans are sequential, so
// implementations are only ever called from one goroutine at a time.
type Reporter interface {
	ScanStarted(totalFiles int)
	FileScanned(relativePath string)
	ScanFinished()
}

// Discard drops all progress events. Used in MCP serve mode and with -quiet,
// where stderr belongs to the log.
type Discard struct{}

func (Discard) ScanStarted(int)    {}
func (Discard) FileScanned(string) {}
func (Discard) ScanFinished()      {}
