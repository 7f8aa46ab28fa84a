package logger

// Reset drops the process logger so the next Init rebuilds it.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
}
