// Command lidarslam-demo drives the core pipeline with a synthetic sweep
// generator (no concrete LiDAR driver is in scope) and wires the result
// through the config and adapters packages, mirroring the teacher's
// flag-driven CLI shape.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/kwv/lidarslam/adapters"
	"github.com/kwv/lidarslam/config"
	"github.com/kwv/lidarslam/slam"
)

var (
	configFile   = flag.String("config", "config.yaml", "path to configuration file")
	sweepCount   = flag.Int("sweeps", 50, "number of synthetic sweeps to process")
	trajectoryOut = flag.String("trajectory-out", "", "write the final trajectory as GeoJSON to this path")
	svgOut       = flag.String("svg-out", "", "write a final map snapshot as SVG to this path")
	pngOut       = flag.String("png-out", "", "write a final map snapshot as PNG to this path")
	undistort    = flag.Bool("undistortion", false, "enable per-point motion compensation")
)

func main() {
	flag.Parse()
	fmt.Println("lidarslam-demo starting")

	params := slam.DefaultParams()
	var mqttPrefix string

	if cfg, resolved, err := config.Load(*configFile); err == nil {
		params = resolved
		mqttPrefix = cfg.MQTT.PublishPrefix
	} else {
		log.Printf("no usable config at %s (%v); using defaults", *configFile, err)
	}
	params.Undistortion = *undistort

	proc := slam.NewProcessor(params)
	publisher := adapters.NewTelemetryPublisher(nil, mqttPrefix)
	smoother := adapters.NewTrajectorySmoother(0.01, 0.25, 0.1)

	for i := 0; i < *sweepCount; i++ {
		sweep := syntheticSweep(i, params.MinDistanceToSensor)
		result := proc.AddFrame(sweep)

		if result.Skipped {
			log.Printf("sweep %d skipped: %s", i, result.SkipReason)
			continue
		}

		smoothed := smoother.Update(result.Tworld)
		if err := publisher.PublishPose(i, smoothed); err != nil {
			log.Printf("sweep %d: telemetry publish skipped: %v", i, err)
		}
	}

	if *trajectoryOut != "" {
		if err := adapters.ExportTrajectory(*trajectoryOut, proc.Trajectory(), 0.05); err != nil {
			log.Fatalf("exporting trajectory: %v", err)
		}
	}

	if *svgOut != "" {
		if err := writeSVG(proc, *svgOut); err != nil {
			log.Fatalf("rendering svg: %v", err)
		}
	}

	if *pngOut != "" {
		raster := adapters.NewRasterRenderer()
		if err := raster.RenderPNG(*pngOut, proc.EdgeMapPoints(), proc.PlanarMapPoints(), proc.Trajectory()); err != nil {
			log.Fatalf("rendering png: %v", err)
		}
	}

	fmt.Printf("processed %d sweeps, final pose: %+v\n", *sweepCount, proc.GetWorldTransform())
}

// syntheticSweep generates a ring of points around a slowly advancing,
// slowly yawing sensor pose, standing in for a real LiDAR driver.
func syntheticSweep(index int, minRange float64) []slam.RawPoint {
	const numLines = 16
	const pointsPerLine = 360

	var raw []slam.RawPoint
	advance := float64(index) * 0.5
	yaw := float64(index) * 0.02

	for line := 0; line < numLines; line++ {
		elevation := (float64(line)/float64(numLines-1) - 0.5) * 0.3
		for i := 0; i < pointsPerLine; i++ {
			azimuth := 2 * math.Pi * float64(i) / float64(pointsPerLine)
			r := 10.0 + 0.5*math.Sin(4*azimuth) + 0.1*float64(line)
			if r < minRange {
				continue
			}
			localX := r * math.Cos(azimuth) * math.Cos(elevation)
			localY := r * math.Sin(azimuth) * math.Cos(elevation)
			localZ := r * math.Sin(elevation)

			cy, sy := math.Cos(yaw), math.Sin(yaw)
			worldX := cy*localX-sy*localY + advance
			worldY := sy*localX + cy*localY

			raw = append(raw, slam.RawPoint{
				X: worldX, Y: worldY, Z: localZ,
				Intensity: 0.5,
				LaserID:   line,
				Azimuth:   azimuth,
				Time:      float64(i) / float64(pointsPerLine),
			})
		}
	}
	return raw
}

func writeSVG(proc *slam.Processor, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	renderer := adapters.NewMapRenderer()
	return renderer.RenderToSVG(f, proc.EdgeMapPoints(), proc.PlanarMapPoints(), proc.Trajectory())
}
