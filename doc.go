// Package playout moves video frames from producers to an output surface.
//
// # Overview
//
// A playout pipeline has three stages, each on its own goroutine:
//
//   - producers generate frames at their own pace (an external renderer or a
//     decoder) and normalize them into a descriptor-conformant layout;
//   - a bounded frame channel with capacity 1 couples each producer to the
//     caller that mixes or forwards its frames;
//   - a presentation loop uploads frames through a pair of transfer buffers
//     and presents them on an output window.
//
// # Quick Start
//
//	format, _ := frame.LookupFormat("1080i5000")
//	p, err := producer.NewDecoderProducer(format, imageseq.New("media/clip"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := p.Start(false); err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Stop()
//
//	cfg := present.Config{Stretch: present.StretchUniform, Windowed: true}
//	c, err := present.New(format, cfg, surface.Factory(""), nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	for range time.Tick(format.Duration()) {
//	    f, err := p.GetFrame()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := c.Send(f); err != nil {
//	        log.Print(err)
//	    }
//	}
//
// # Errors
//
// Construction errors are returned synchronously. Faults raised on a
// worker goroutine are captured and returned by the next call on the same
// producer or consumer. The sentinels in this package classify them.
//
// # Logging
//
// Nothing is logged by default. See [SetLogger].
package playout

// Version information
const (
	// Version is the current version of the library
	Version = "0.4.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 4

	// VersionPatch is the patch version
	VersionPatch = 0
)
