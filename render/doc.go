// Package render is the public entry point for GPU-accelerated drawing.
//
// An Engine wraps a GPU device and converts quartz drawing operations
// (paths, gradients, images, shadows) into draw calls against it. The
// engine either opens a device itself or receives one from the host
// application:
//
//	eng, err := render.New(render.Options{Width: 800, Height: 600})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	path := quartz.NewPath()
//	path.Rectangle(100, 100, 200, 150)
//	eng.FillPath(path, quartz.Identity(), quartz.RGB(1, 0, 0), quartz.DefaultDrawState())
//
//	img, err := eng.MakeImage(context.Background(), 800, 600)
//
// Draw calls submit individually unless bracketed by BeginFrame and
// EndFrame, which batch a frame's command buffers into one submission.
//
// Engines are not safe for concurrent use.
package render
