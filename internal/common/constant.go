package common

// MaxUploadBytes is the hard ceiling for file-backed link payloads.
// Enforced client-side before requesting an upload slot and re-checked
// by the server against the declared size.
const MaxUploadBytes = 500 * 1024
