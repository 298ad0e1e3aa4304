// Package cli implements the bedrock command line.
//
// Commands:
//
//	post <event> [name=value ...]   post an event and print the envelope
//	spec                            print the service specification
//	docs                            render the specification as HTML
//	openapi                         export the specification as OpenAPI 3
//	serve                           serve browsable documentation
//	stub <spec.json>                serve a local stand-in for a service
//	version                         print build information
//
// Every command reads its settings from flags, then BEDROCK_* environment
// variables, then the YAML file named by --config:
//
//	contextPath: http://localhost:8080/
//	timeout: 3s
//	log:
//	  level: debug
//	  format: json
//	serve:
//	  addr: :8090
//	  baseUrl: /docs
//	  probeUrls:
//	    - http://localhost:8080/static/index.html
//	  router:
//	    timeout: 30s
//	    hideHeaders: [Authorization]
package cli
