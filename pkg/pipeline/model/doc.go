// Package model provides the data structures shared by the pipeline package and its observers.
// It defines the stage contract, the parameters handed to each stage, the keyword arguments
// bundle and the hooks a pipeline option can implement to follow a run.
package model
