// Package task runs background work off the request path. Services publish
// events, a TaskFactoryEventHandler turns them into tasks on a TaskQueue, and a
// WorkerPool executes queued tasks until the queue is closed and drained.
package task
