// Package trigger provides the two producers feeding the job queue.
//
// A TimerSource admits a full-metadata job whenever its schedule fires. A
// PushSource turns push notifications into metadata-less jobs; the
// notification transport only needs to call Publish, and consumers
// subscribe with OnPushEvent.
package trigger
