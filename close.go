package facetcount

// Close releases the filter cache and the bluge mirror, if any.
// Further calls on the Engine return ErrClosed.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	var firstErr error
	if e.blugeSearcher != nil {
		if err := e.blugeSearcher.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		e.blugeSearcher = nil
	}
	if e.blugeIndex != nil {
		if err := e.blugeIndex.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		e.blugeIndex = nil
	}
	if e.cache != nil {
		if err := e.cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	e.searcher = nil
	return firstErr
}
