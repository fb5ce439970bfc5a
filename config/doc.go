// Package config loads binding files that declare callbacks and the shapes
// of their arguments and results.
//
// A binding file is JSON, or YAML when its extension is .yaml or .yml:
//
//	{
//	  "script_name": "error_demo",
//	  "log_level": 2,
//	  "callback": "process",
//	  "callbacks": [{
//	    "id": "process",
//	    "backend": "starlark",
//	    "script_path": "error_demo.star",
//	    "function_name": "process_data",
//	    "inputs":  [{"name": "n", "type": "scalar"},
//	                {"name": "v", "type": "vector", "dimensions": ["n"]}],
//	    "outputs": [{"name": "y", "type": "scalar"}]
//	  }]
//	}
//
// A dimension given as a string names an earlier scalar input and makes the
// slot dynamic. Field constraints are checked with validator tags, then
// every callback's signatures are built and validated.
package config
