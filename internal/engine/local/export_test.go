package local

// JobCount reports how many jobs the engine still tracks.
func (e *Engine) JobCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.jobs)
}
