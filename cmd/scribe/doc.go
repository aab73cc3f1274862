// Command scribe is the command-line client for the audio and document
// processing platform.
//
// It signs users in, keeps their session in the configured state directory,
// and exposes the platform's audio, document, dashboard, admin and settings
// endpoints as subcommands. When the backend reports that the stored session
// no longer works, scribe clears it and asks the user to run `scribe login`
// again.
package main
