package primitive

import (
	"github.com/FishAndRips/ringhopper-sub000/endian"
	"github.com/FishAndRips/ringhopper-sub000/errs"
)

// TagGroup is the type class of a tag. Each group has a string identifier
// (used as the file extension), a FourCC, and an optional supergroup chain at
// most three levels deep.
type TagGroup int

const (
	TagGroupActor TagGroup = iota
	TagGroupActorVariant
	TagGroupAntenna
	TagGroupBiped
	TagGroupBitmap
	TagGroupCameraTrack
	TagGroupColorTable
	TagGroupContinuousDamageEffect
	TagGroupContrail
	TagGroupDamageEffect
	TagGroupDecal
	TagGroupDetailObjectCollection
	TagGroupDevice
	TagGroupDeviceControl
	TagGroupDeviceLightFixture
	TagGroupDeviceMachine
	TagGroupDialogue
	TagGroupEffect
	TagGroupEquipment
	TagGroupFlag
	TagGroupFog
	TagGroupFont
	TagGroupGarbage
	TagGroupGBXModel
	TagGroupGlobals
	TagGroupGlow
	TagGroupGrenadeHUDInterface
	TagGroupHUDGlobals
	TagGroupHUDMessageText
	TagGroupHUDNumber
	TagGroupInputDeviceDefaults
	TagGroupItem
	TagGroupItemCollection
	TagGroupLensFlare
	TagGroupLight
	TagGroupLightVolume
	TagGroupLightning
	TagGroupMaterialEffects
	TagGroupMeter
	TagGroupModel
	TagGroupModelAnimations
	TagGroupModelCollisionGeometry
	TagGroupMultiplayerScenarioDescription
	TagGroupObject
	TagGroupParticle
	TagGroupParticleSystem
	TagGroupPhysics
	TagGroupPlaceholder
	TagGroupPointPhysics
	TagGroupPreferencesNetworkGame
	TagGroupProjectile
	TagGroupScenario
	TagGroupScenarioStructureBSP
	TagGroupScenery
	TagGroupShader
	TagGroupShaderEnvironment
	TagGroupShaderModel
	TagGroupShaderTransparentChicago
	TagGroupShaderTransparentChicagoExtended
	TagGroupShaderTransparentGeneric
	TagGroupShaderTransparentGlass
	TagGroupShaderTransparentMeter
	TagGroupShaderTransparentPlasma
	TagGroupShaderTransparentWater
	TagGroupSky
	TagGroupSound
	TagGroupSoundEnvironment
	TagGroupSoundLooping
	TagGroupSoundScenery
	TagGroupSpheroid
	TagGroupStringList
	TagGroupTagCollection
	TagGroupUIWidgetCollection
	TagGroupUIWidgetDefinition
	TagGroupUnicodeStringList
	TagGroupUnit
	TagGroupUnitHUDInterface
	TagGroupVectorFont
	TagGroupVectorFontData
	TagGroupVehicle
	TagGroupVirtualKeyboard
	TagGroupWeapon
	TagGroupWeaponHUDInterface
	TagGroupWeatherParticleSystem
	TagGroupWind

	// TagGroupUnset denotes the state of the tag group not being set. It is
	// invalid at runtime but appears in null reference fields.
	TagGroupUnset
)

type groupInfo struct {
	name   string
	fourCC FourCC
}

var allGroups = [...]groupInfo{
	TagGroupActor:                            {"actor", 0x61637472},
	TagGroupActorVariant:                     {"actor_variant", 0x61637476},
	TagGroupAntenna:                          {"antenna", 0x616E7421},
	TagGroupBiped:                            {"biped", 0x62697064},
	TagGroupBitmap:                           {"bitmap", 0x6269746D},
	TagGroupCameraTrack:                      {"camera_track", 0x7472616B},
	TagGroupColorTable:                       {"color_table", 0x636F6C6F},
	TagGroupContinuousDamageEffect:           {"continuous_damage_effect", 0x63646D67},
	TagGroupContrail:                         {"contrail", 0x636F6E74},
	TagGroupDamageEffect:                     {"damage_effect", 0x6A707421},
	TagGroupDecal:                            {"decal", 0x64656361},
	TagGroupDetailObjectCollection:           {"detail_object_collection", 0x646F6263},
	TagGroupDevice:                           {"device", 0x64657669},
	TagGroupDeviceControl:                    {"device_control", 0x6374726C},
	TagGroupDeviceLightFixture:               {"device_light_fixture", 0x6C696669},
	TagGroupDeviceMachine:                    {"device_machine", 0x6D616368},
	TagGroupDialogue:                         {"dialogue", 0x75646C67},
	TagGroupEffect:                           {"effect", 0x65666665},
	TagGroupEquipment:                        {"equipment", 0x65716970},
	TagGroupFlag:                             {"flag", 0x666C6167},
	TagGroupFog:                              {"fog", 0x666F6720},
	TagGroupFont:                             {"font", 0x666F6E74},
	TagGroupGarbage:                          {"garbage", 0x67617262},
	TagGroupGBXModel:                         {"gbxmodel", 0x6D6F6432},
	TagGroupGlobals:                          {"globals", 0x6D617467},
	TagGroupGlow:                             {"glow", 0x676C7721},
	TagGroupGrenadeHUDInterface:              {"grenade_hud_interface", 0x67726869},
	TagGroupHUDGlobals:                       {"hud_globals", 0x68756467},
	TagGroupHUDMessageText:                   {"hud_message_text", 0x686D7420},
	TagGroupHUDNumber:                        {"hud_number", 0x68756423},
	TagGroupInputDeviceDefaults:              {"input_device_defaults", 0x64657663},
	TagGroupItem:                             {"item", 0x6974656D},
	TagGroupItemCollection:                   {"item_collection", 0x69746D63},
	TagGroupLensFlare:                        {"lens_flare", 0x6C656E73},
	TagGroupLight:                            {"light", 0x6C696768},
	TagGroupLightVolume:                      {"light_volume", 0x6D677332},
	TagGroupLightning:                        {"lightning", 0x656C6563},
	TagGroupMaterialEffects:                  {"material_effects", 0x666F6F74},
	TagGroupMeter:                            {"meter", 0x6D657472},
	TagGroupModel:                            {"model", 0x6D6F6465},
	TagGroupModelAnimations:                  {"model_animations", 0x616E7472},
	TagGroupModelCollisionGeometry:           {"model_collision_geometry", 0x636F6C6C},
	TagGroupMultiplayerScenarioDescription:   {"multiplayer_scenario_description", 0x6D706C79},
	TagGroupObject:                           {"object", 0x6F626A65},
	TagGroupParticle:                         {"particle", 0x70617274},
	TagGroupParticleSystem:                   {"particle_system", 0x7063746C},
	TagGroupPhysics:                          {"physics", 0x70687973},
	TagGroupPlaceholder:                      {"placeholder", 0x706C6163},
	TagGroupPointPhysics:                     {"point_physics", 0x70706879},
	TagGroupPreferencesNetworkGame:           {"preferences_network_game", 0x6E677072},
	TagGroupProjectile:                       {"projectile", 0x70726F6A},
	TagGroupScenario:                         {"scenario", 0x73636E72},
	TagGroupScenarioStructureBSP:             {"scenario_structure_bsp", 0x73627370},
	TagGroupScenery:                          {"scenery", 0x7363656E},
	TagGroupShader:                           {"shader", 0x73686472},
	TagGroupShaderEnvironment:                {"shader_environment", 0x73656E76},
	TagGroupShaderModel:                      {"shader_model", 0x736F736F},
	TagGroupShaderTransparentChicago:         {"shader_transparent_chicago", 0x73636869},
	TagGroupShaderTransparentChicagoExtended: {"shader_transparent_chicago_extended", 0x73636578},
	TagGroupShaderTransparentGeneric:         {"shader_transparent_generic", 0x736F7472},
	TagGroupShaderTransparentGlass:           {"shader_transparent_glass", 0x73676C61},
	TagGroupShaderTransparentMeter:           {"shader_transparent_meter", 0x736D6574},
	TagGroupShaderTransparentPlasma:          {"shader_transparent_plasma", 0x73706C61},
	TagGroupShaderTransparentWater:           {"shader_transparent_water", 0x73776174},
	TagGroupSky:                              {"sky", 0x736B7920},
	TagGroupSound:                            {"sound", 0x736E6421},
	TagGroupSoundEnvironment:                 {"sound_environment", 0x736E6465},
	TagGroupSoundLooping:                     {"sound_looping", 0x6C736E64},
	TagGroupSoundScenery:                     {"sound_scenery", 0x73736365},
	TagGroupSpheroid:                         {"spheroid", 0x626F6F6D},
	TagGroupStringList:                       {"string_list", 0x73747223},
	TagGroupTagCollection:                    {"tag_collection", 0x74616763},
	TagGroupUIWidgetCollection:               {"ui_widget_collection", 0x536F756C},
	TagGroupUIWidgetDefinition:               {"ui_widget_definition", 0x44654C61},
	TagGroupUnicodeStringList:                {"unicode_string_list", 0x75737472},
	TagGroupUnit:                             {"unit", 0x756E6974},
	TagGroupUnitHUDInterface:                 {"unit_hud_interface", 0x756E6869},
	TagGroupVectorFont:                       {"vector_font", 0x76666E74},
	TagGroupVectorFontData:                   {"vector_font_data", 0x76666E64},
	TagGroupVehicle:                          {"vehicle", 0x76656869},
	TagGroupVirtualKeyboard:                  {"virtual_keyboard", 0x76636B79},
	TagGroupWeapon:                           {"weapon", 0x77656170},
	TagGroupWeaponHUDInterface:               {"weapon_hud_interface", 0x77706869},
	TagGroupWeatherParticleSystem:            {"weather_particle_system", 0x7261696E},
	TagGroupWind:                             {"wind", 0x77696E64},
	TagGroupUnset:                            {"<unset>", 0x00000000},
}

var (
	groupsByName   = make(map[string]TagGroup, len(allGroups))
	groupsByFourCC = make(map[FourCC]TagGroup, len(allGroups))
)

func init() {
	for group := range TagGroup(len(allGroups)) {
		groupsByName[allGroups[group].name] = group
		groupsByFourCC[allGroups[group].fourCC] = group
	}
}

// AllTagGroups returns every valid tag group, excluding the unset sentinel.
func AllTagGroups() []TagGroup {
	groups := make([]TagGroup, 0, len(allGroups)-1)
	for group := range TagGroup(len(allGroups)) {
		if group != TagGroupUnset {
			groups = append(groups, group)
		}
	}
	return groups
}

// String returns the group's string identifier, e.g. "weapon". This is also
// the file extension used for tag files.
func (g TagGroup) String() string {
	if g < 0 || int(g) >= len(allGroups) {
		return "<unset>"
	}
	return allGroups[g].name
}

// FourCC returns the group's FourCC.
func (g TagGroup) FourCC() FourCC {
	if g < 0 || int(g) >= len(allGroups) {
		return 0
	}
	return allGroups[g].fourCC
}

// TagGroupFromName returns the group for a string identifier.
func TagGroupFromName(name string) (TagGroup, error) {
	group, ok := groupsByName[name]
	if !ok {
		return TagGroupUnset, errs.ErrInvalidFourCC
	}
	return group, nil
}

// TagGroupFromFourCC returns the group for a FourCC. The all-ones FourCC maps
// to the unset sentinel, matching how null references are stored.
func TagGroupFromFourCC(fourCC FourCC) (TagGroup, error) {
	group, ok := groupsByFourCC[fourCC]
	if !ok {
		if fourCC == 0xFFFFFFFF {
			return TagGroupUnset, nil
		}
		return TagGroupUnset, errs.ErrInvalidFourCC
	}
	return group, nil
}

// Supergroup returns the group's immediate supergroup, or ok=false if the
// group has none.
func (g TagGroup) Supergroup() (TagGroup, bool) {
	switch g {
	case TagGroupUnit, TagGroupItem, TagGroupDevice,
		TagGroupProjectile, TagGroupScenery, TagGroupPlaceholder, TagGroupSoundScenery:
		return TagGroupObject, true
	case TagGroupBiped, TagGroupVehicle:
		return TagGroupUnit, true
	case TagGroupWeapon, TagGroupGarbage, TagGroupEquipment:
		return TagGroupItem, true
	case TagGroupDeviceMachine, TagGroupDeviceControl, TagGroupDeviceLightFixture:
		return TagGroupDevice, true
	case TagGroupShaderModel, TagGroupShaderEnvironment,
		TagGroupShaderTransparentChicago, TagGroupShaderTransparentChicagoExtended,
		TagGroupShaderTransparentGeneric, TagGroupShaderTransparentGlass,
		TagGroupShaderTransparentMeter, TagGroupShaderTransparentPlasma,
		TagGroupShaderTransparentWater:
		return TagGroupShader, true
	default:
		return TagGroupUnset, false
	}
}

// SupergroupChain returns the group followed by its supergroups, most derived
// first. The chain is at most three entries; unused slots are TagGroupUnset.
func (g TagGroup) SupergroupChain() [3]TagGroup {
	chain := [3]TagGroup{g, TagGroupUnset, TagGroupUnset}
	if second, ok := g.Supergroup(); ok {
		chain[1] = second
		if third, ok := second.Supergroup(); ok {
			chain[2] = third
		}
	}
	return chain
}

// MatchesGroup reports whether g is the given group or has it anywhere in its
// supergroup chain.
func (g TagGroup) MatchesGroup(other TagGroup) bool {
	for _, c := range g.SupergroupChain() {
		if c == other && c != TagGroupUnset {
			return true
		}
	}
	return false
}

const TagGroupSize = FourCCSize

// Read reads the group as a FourCC.
func (g *TagGroup) Read(e endian.EndianEngine, data []byte, at, structEnd int) error {
	var fourCC FourCC
	if err := fourCC.Read(e, data, at, structEnd); err != nil {
		return err
	}
	group, err := TagGroupFromFourCC(fourCC)
	if err != nil {
		return err
	}
	*g = group
	return nil
}

// Write writes the group as a FourCC.
func (g TagGroup) Write(e endian.EndianEngine, data []byte, at, structEnd int) {
	g.FourCC().Write(e, data, at, structEnd)
}
