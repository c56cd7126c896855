package adapters

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"

	"github.com/kwv/lidarslam/slam"
)

// ExportTrajectory writes the committed trajectory as a GeoJSON
// LineString Feature, simplified with Douglas-Peucker at toleranceM
// (meters), generalized from the teacher's SimplifyLineString.
func ExportTrajectory(path string, trajectory []slam.Pose, toleranceM float64) error {
	ls := make(orb.LineString, len(trajectory))
	for i, p := range trajectory {
		ls[i] = orb.Point{p.Tx, p.Ty}
	}

	var geom orb.Geometry = ls
	if toleranceM > 0 && len(ls) > 2 {
		simplified := simplify.DouglasPeucker(toleranceM).Simplify(ls.Clone())
		if out, ok := simplified.(orb.LineString); ok {
			geom = out
		}
	}

	feature := geojson.NewFeature(geom)
	feature.Properties["kind"] = "trajectory"
	feature.Properties["pointCount"] = len(trajectory)

	data, err := json.MarshalIndent(feature, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling trajectory geojson: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing trajectory geojson: %w", err)
	}
	return nil
}

// ExportMapSnapshot writes the rolling map's current edge/planar points as
// a GeoJSON FeatureCollection of MultiPoint features, one per class, for
// offline inspection of the accumulated local map.
func ExportMapSnapshot(path string, edges, planars []slam.Point3) error {
	fc := geojson.NewFeatureCollection()

	fc.Append(multiPointFeature(edges, "edges"))
	fc.Append(multiPointFeature(planars, "planars"))

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling map snapshot geojson: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing map snapshot geojson: %w", err)
	}
	return nil
}

func multiPointFeature(points []slam.Point3, kind string) *geojson.Feature {
	mp := make(orb.MultiPoint, len(points))
	for i, p := range points {
		mp[i] = orb.Point{p.X, p.Y}
	}
	f := geojson.NewFeature(mp)
	f.Properties["kind"] = kind
	f.Properties["count"] = len(points)
	return f
}
