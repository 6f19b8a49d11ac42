package worker

import "time"

// broadcastOperations announces this node on a fixed interval. The first
// announcement goes out immediately.
func (w *Worker) broadcastOperations() {
	w.evHandler("worker: broadcastOperations: G started")
	defer w.evHandler("worker: broadcastOperations: G completed")

	ticker := time.NewTicker(w.broadcastEvery)
	defer ticker.Stop()

	w.runBroadcastOperation()

	for {
		select {
		case <-ticker.C:
			if !w.isShutdown() {
				w.runBroadcastOperation()
			}
		case <-w.shut:
			w.evHandler("worker: broadcastOperations: received shut signal")
			return
		}
	}
}

// runBroadcastOperation sends a single HELLO. A failure is logged and the
// next tick tries again.
func (w *Worker) runBroadcastOperation() {
	if err := w.broadcaster.Broadcast(); err != nil {
		w.evHandler("worker: runBroadcastOperation: ERROR: %s", err)
		return
	}

	w.evHandler("worker: runBroadcastOperation: HELLO sent")
}
