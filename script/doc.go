// Package script runs callbacks written in Starlark.
//
// A script defines a top-level function taking one argument per input slot
// and returning a tuple with one element per output slot:
//
//	def process_data(x):
//	    if x < 0:
//	        gspy.log("negative input", 0)
//	        gspy.error("negative input")
//	        return (0.0,)
//	    return (x * 2,)
//
// Scalars are floats, vectors and matrices nested lists. Time series are
// dicts with keys timestamps, data, time_basis and data_type. Lookup
// tables are dicts with keys table_dim, row_labels, col_labels,
// layer_labels and data.
//
// The predeclared gspy module exposes the call's log channel as
// gspy.log(message, level=2) and its escalation channel as
// gspy.error(message). print writes to the log channel at Debug level.
package script
