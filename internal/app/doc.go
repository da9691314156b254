// Package app wires the loader together: logging, host libraries,
// repositories, the dependency manager and the engine. It loads the configured
// documents, prints what they built and optionally keeps reloading them as
// they change, decoupled from any specific entrypoint like a CLI.
package app
