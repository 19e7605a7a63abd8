// Package pipeline runs the plugin build: fetch dependencies, patch the SDK,
// copy the project file, synthesize the solution, build and package.
//
// Stages run strictly in order and the first failure stops the run. Options
// are fixed when the pipeline is constructed; everything a stage derives is
// written to State for the stages after it.
package pipeline
