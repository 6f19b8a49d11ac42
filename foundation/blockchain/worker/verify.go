package worker

import "time"

// verifyOperations re-verifies the chain on a fixed interval.
func (w *Worker) verifyOperations() {
	w.evHandler("worker: verifyOperations: G started")
	defer w.evHandler("worker: verifyOperations: G completed")

	ticker := time.NewTicker(w.verifyEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !w.isShutdown() {
				w.runVerifyOperation()
			}
		case <-w.shut:
			w.evHandler("worker: verifyOperations: received shut signal")
			return
		}
	}
}

// runVerifyOperation performs a single chain check. The ledger halts itself
// on failure so the worker only reports it.
func (w *Worker) runVerifyOperation() {
	if err := w.verifier.VerifyChain(); err != nil {
		w.evHandler("worker: runVerifyOperation: ERROR: %s", err)
	}
}
