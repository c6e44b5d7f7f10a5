package scene

// BakedActionPrefix is prepended to the name of transferred actions.
const BakedActionPrefix = "baked_"

// TransferAction copies the active action of src and assigns the copy to dst,
// replacing any action dst had. Channels are matched by bone name only.
func (s *Scene) TransferAction(src, dst *Object) error {
	action := src.ActiveAction()
	if action == nil {
		return ErrNoAnimationData
	}
	c := action.Copy()
	c.Name = BakedActionPrefix + action.Name
	s.Data.Actions = append(s.Data.Actions, c)
	dst.CreateAnimationData().Action = c
	return nil
}
