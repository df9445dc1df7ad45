package params

// Defaults returns the built-in trait table.
func Defaults() Table {
	return NewTable(
		Spec{Name: ShapeType, Min: 0, Max: 1, Default: 0.5, Kind: KindFloat},
		Spec{Name: LobeCount, Min: 3, Max: 9, Default: 5, Kind: KindInt},
		Spec{Name: Roundness, Min: 0, Max: 1, Default: 0.6, Kind: KindFloat},
		Spec{Name: Tension, Min: 0.2, Max: 1.0, Default: 0.55, Kind: KindFloat},
		Spec{Name: Asymmetry, Min: 0, Max: 1, Default: 0.3, Kind: KindFloat},
		Spec{Name: Wobble, Min: 0, Max: 0.15, Default: 0.03, Kind: KindFloat},
		Spec{Name: Aspect, Min: 0.6, Max: 1.6, Default: 1.0, Kind: KindFloat},
		Spec{Name: ValleyDepth, Min: 0.05, Max: 0.6, Default: 0.25, Kind: KindFloat},
		Spec{Name: Envelope, Min: 0, Max: 0.6, Default: 0.15, Kind: KindFloat},
		Spec{Name: StrokeWeight, Min: 0.5, Max: 8, Default: 2, Kind: KindFloat},
		Spec{Name: OutlineGap, Min: 0, Max: 0.3, Default: 0, Kind: KindFloat},
		Spec{Name: DotDensity, Min: 4, Max: 24, Default: 10, Kind: KindInt},
		Spec{Name: DotSize, Min: 0.5, Max: 4, Default: 1.6, Kind: KindFloat},
		Spec{Name: Gradient, Min: -1, Max: 1, Default: 0.3, Kind: KindFloat},
		Spec{Name: GridJitter, Min: 0, Max: 0.5, Default: 0.15, Kind: KindFloat},
		Spec{Name: SkipChance, Min: 0, Max: 0.4, Default: 0.08, Kind: KindFloat},
		Spec{Name: ClusterChance, Min: 0, Max: 0.3, Default: 0.05, Kind: KindFloat},
		Spec{Name: AccentCount, Min: 0, Max: 12, Default: 4, Kind: KindInt},
		Spec{Name: AccentPattern, Min: 0, Max: 1, Default: 0.5, Kind: KindFloat},
		Spec{Name: AccentSize, Min: 1, Max: 8, Default: 3, Kind: KindFloat},
		Spec{Name: ShadowOffset, Min: 0, Max: 0.2, Default: 0.05, Kind: KindFloat},
		Spec{Name: ShadowScale, Min: 1, Max: 1.25, Default: 1.06, Kind: KindFloat},
	)
}
