// Package main hosts the audiofeeder CLI entrypoint and command graph.
//
// The Cobra-based command tree surfaces the feed engine directly: rendering
// entries, inspecting mode availability, managing the render cache, tool
// checks, and configuration scaffolding. It centralizes configuration
// resolution and engine wiring so subcommands can focus on user experience.
package main
