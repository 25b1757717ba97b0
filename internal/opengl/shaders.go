package opengl

// maxLights is the size of the light arrays in the shading program.
const maxLights = 8

// depth-only program for the shadow pass; positions only
const depthVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
uniform mat4 lightMVP;
void main() {
    gl_Position = lightMVP * vec4(inPosition, 1.0);
}
` + "\x00"

const depthFragSrc = `
#version 410 core
void main() {}
` + "\x00"

const shadeVertSrc = `
#version 410 core
layout(location = 0) in vec3 inPosition;
layout(location = 1) in vec3 inNormal;
layout(location = 2) in vec2 inUV;

uniform mat4 mvp;
uniform mat4 model;
uniform mat4 lightViewProj;

out vec3 fragWorldPos;
out vec3 fragNormal;
out vec2 fragUV;
out vec4 fragLightSpacePos;

void main() {
    vec4 world = model * vec4(inPosition, 1.0);
    gl_Position       = mvp * vec4(inPosition, 1.0);
    fragWorldPos      = world.xyz;
    fragNormal        = mat3(model) * inNormal;
    fragUV            = inUV;
    fragLightSpacePos = lightViewProj * world;
}
` + "\x00"

// Phong with per-light ambient, attenuation and spot cone. Only the shadow
// light is tested against the shadow map; shadowed lights keep ambient.
const shadeFragSrc = `
#version 410 core
#define MAX_LIGHTS 8

in vec3 fragWorldPos;
in vec3 fragNormal;
in vec2 fragUV;
in vec4 fragLightSpacePos;

out vec4 outColor;

uniform bool lightingEnabled;
uniform vec4 globalAmbient;
uniform vec3 eyePos;

uniform int   lightCount;
uniform int   lightIndex[MAX_LIGHTS];
uniform vec4  lightPosition[MAX_LIGHTS];
uniform vec4  lightAmbient[MAX_LIGHTS];
uniform vec4  lightDiffuse[MAX_LIGHTS];
uniform vec4  lightSpecular[MAX_LIGHTS];
uniform vec3  lightSpotDir[MAX_LIGHTS];
uniform float lightSpotExp[MAX_LIGHTS];
uniform float lightSpotCos[MAX_LIGHTS];
uniform bool  lightIsSpot[MAX_LIGHTS];
uniform vec3  lightAtten[MAX_LIGHTS];

uniform vec4  matEmission;
uniform vec4  matAmbient;
uniform vec4  matDiffuse;
uniform vec4  matSpecular;
uniform float matShininess;

uniform sampler2D diffuseTex;
uniform bool      hasTexture;

uniform sampler2DShadow shadowMap;
uniform int   shadowLight;
uniform float shadowBias;
uniform float shadowTexel;
uniform bool  pcf;

float visibility() {
    if (fragLightSpacePos.w <= 0.0) return 1.0;
    vec3 p = fragLightSpacePos.xyz / fragLightSpacePos.w;
    p = p * 0.5 + 0.5;
    if (p.x < 0.0 || p.x > 1.0 || p.y < 0.0 || p.y > 1.0 || p.z < 0.0 || p.z > 1.0) return 1.0;
    if (!pcf) {
        return texture(shadowMap, vec3(p.xy, p.z - shadowBias));
    }
    float lit = 0.0;
    for (int x = -1; x <= 1; x++) {
        for (int y = -1; y <= 1; y++) {
            lit += texture(shadowMap, vec3(p.xy + vec2(float(x), float(y)) * shadowTexel, p.z - shadowBias));
        }
    }
    return lit / 9.0;
}

void main() {
    vec4 texel = hasTexture ? texture(diffuseTex, fragUV) : vec4(1.0);
    if (!lightingEnabled) {
        outColor = clamp(matDiffuse * texel, 0.0, 1.0);
        return;
    }

    vec3 n = length(fragNormal) > 0.0 ? normalize(fragNormal) : vec3(0.0);
    vec3 v = normalize(eyePos - fragWorldPos);
    vec4 color = matEmission + globalAmbient * matAmbient;

    for (int i = 0; i < lightCount; i++) {
        vec3 l;
        float atten = 1.0;
        if (lightPosition[i].w == 0.0) {
            l = normalize(lightPosition[i].xyz);
        } else {
            vec3 toLight = lightPosition[i].xyz - fragWorldPos;
            float d = length(toLight);
            float denom = lightAtten[i].x + lightAtten[i].y * d + lightAtten[i].z * d * d;
            if (denom > 0.0) atten = 1.0 / denom;
            l = normalize(toLight);
        }

        float spot = 1.0;
        if (lightIsSpot[i]) {
            float c = dot(-l, normalize(lightSpotDir[i]));
            if (c < lightSpotCos[i]) continue;
            spot = pow(max(c, 0.0), lightSpotExp[i]);
        }
        float scale = atten * spot;
        color += lightAmbient[i] * matAmbient * scale;

        float vis = lightIndex[i] == shadowLight ? visibility() : 1.0;
        float nDotL = dot(n, l);
        if (nDotL <= 0.0 || vis <= 0.0) continue;

        vec3 h = normalize(l + v);
        float spec = pow(max(dot(n, h), 0.0), matShininess);
        color += (lightDiffuse[i] * matDiffuse * nDotL + lightSpecular[i] * matSpecular * spec) * scale * vis;
    }

    color *= texel;
    color.a = matDiffuse.a * texel.a;
    outColor = clamp(color, 0.0, 1.0);
}
` + "\x00"
