// Package docs provides generated OpenAPI documentation.
//
// eBook Studio API
//
//	@title			eBook Studio API
//	@version		1.0
//	@description	Manuscript segmentation and AI artwork workflow for ebooks.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/ebookstudio
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http
package docs

//go:generate swag init -g ../cmd/studio/serve.go -o ./swagger --parseDependency --parseInternal
