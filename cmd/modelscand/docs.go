package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           modelscan API
// @version         1.0
// @description     HTTP API for diffusion model inventory, workflow resolution and VRAM estimation.
//
// @contact.name   modelscan maintainers
// @contact.url    https://github.com/your-org/modelscan
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
