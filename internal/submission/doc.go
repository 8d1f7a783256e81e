// Package submission validates article submissions and forwards them to the
// summarization workflow webhook.
//
// Forwarding is deliberately lenient: the workflow runs asynchronously, so a
// timeout or an unexpected status code does not mean the job was lost. Only a
// transport failure, where the payload may never have left this process, is
// reported to the caller as an error. StrictStatus in Config turns unexpected
// status codes into failures for deployments that want them surfaced.
package submission
