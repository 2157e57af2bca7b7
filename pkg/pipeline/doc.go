// Package pipeline provides a pipeline for processing data.
//
// A pipeline is a series of steps connected by channels. A root step produces elements, intermediate steps
// transform them one by one, splitters broadcast them to several branches and sinks consume them. Every step
// runs in its own goroutine and a step can fan out its work over several goroutines with StepConcurrency.
//
// The pipeline stops on the first error: the shared context is cancelled, every step drains and Run returns the
// error wrapped with the name of the step that produced it.
//
// Options implementing model.PipelineOption observe the pipeline while it runs. The measure and drawer
// subpackages provide options to collect step durations and to write the pipeline graph.
package pipeline
